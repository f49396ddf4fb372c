package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func allowedLocations(t *testing.T, uris ...string) []interfaces.StorageBackendLocation {
	t.Helper()
	locations, err := ParseLocations(uris)
	require.NoError(t, err)
	return locations
}

func TestArchiver_OutputLinks(t *testing.T) {
	dir := t.TempDir()
	link := "file://" + dir

	archiver, err := NewArchiver(NewStorageBackendFactory(discardLogger()), allowedLocations(t, link), nil, discardLogger())
	require.NoError(t, err)

	outputs := []Output{
		{Type: "result", Link: link, Blob: "MTA="},
		{Type: "state", Link: link + "/", Blob: "c3RhdGU="},
		{Type: "message", Link: "", Blob: "ignored"},
		{Type: "code", Link: "https://example.com/out", Blob: "ignored"},
		{Type: "empty", Link: link, Blob: ""},
	}

	archived := archiver.Archive(context.Background(), outputs, nil)
	require.Len(t, archived, 2)

	for i, want := range []string{"MTA=", "c3RhdGU="} {
		assert.Equal(t, interfaces.ComputeID([]byte(want)), archived[i].ContentID)

		stored, err := os.ReadFile(filepath.Join(dir, "outputs", archived[i].ContentID.String()))
		require.NoError(t, err)
		assert.Equal(t, want, string(stored))
	}
}

func TestArchiver_IgnoresUnlistedLinks(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()

	archiver, err := NewArchiver(NewStorageBackendFactory(discardLogger()), allowedLocations(t, "file://"+allowed), nil, discardLogger())
	require.NoError(t, err)

	archived := archiver.Archive(context.Background(), []Output{
		{Type: "result", Link: "file://" + allowed + "/nested/dir", Blob: "MTA="},
		{Type: "result", Link: "file://" + other, Blob: "MTA="},
		{Type: "result", Link: "vault://attacker.example:8200/secret/x", Blob: "MTA="},
		{Type: "result", Link: "s3://other-bucket/" + allowed, Blob: "MTA="},
	}, nil)
	assert.Empty(t, archived)

	assert.NoDirExists(t, filepath.Join(allowed, "nested"))
	assert.NoDirExists(t, filepath.Join(other, "outputs"))
	entries, err := os.ReadDir(filepath.Join(allowed, "outputs"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiver_CredentialsDoNotAffectMatching(t *testing.T) {
	locations := allowedLocations(t, "vault://s.secret@localhost:8200/secret/workorders?tls=false")
	archiver, err := NewArchiver(NewStorageBackendFactory(discardLogger()), locations, nil, discardLogger())
	require.NoError(t, err)

	backend, ok := archiver.outputBackend("vault://localhost:8200/secret/workorders")
	require.True(t, ok)
	assert.Equal(t, "vault-secret-workorders", backend.Name())

	_, ok = archiver.outputBackend("vault://localhost:8200/secret/elsewhere")
	assert.False(t, ok)
}

func TestArchiver_BadOutputLocation(t *testing.T) {
	_, err := NewArchiver(NewStorageBackendFactory(discardLogger()), allowedLocations(t, "vault://localhost:8200"), nil, discardLogger())
	assert.Error(t, err)
}

func TestArchiver_Responses(t *testing.T) {
	response := []byte(`{"jsonrpc":"2.0","id":7,"result":{}}`)
	responseID := interfaces.ComputeID(response)

	responses := &MockStorageBackend{name: "responses"}
	responses.On("Store", mock.Anything, response, interfaces.ResponseType).Return(responseID, nil).Once()

	archiver, err := NewArchiver(NewStorageBackendFactory(discardLogger()), nil, responses, discardLogger())
	require.NoError(t, err)
	archived := archiver.Archive(context.Background(), nil, response)

	require.Len(t, archived, 1)
	assert.Equal(t, "mock://responses", archived[0].Location)
	assert.Equal(t, responseID, archived[0].ContentID)
	responses.AssertExpectations(t)
}

func TestArchiver_FailuresAreNotFatal(t *testing.T) {
	response := []byte(`{"jsonrpc":"2.0","id":7,"result":{}}`)

	responses := &MockStorageBackend{name: "responses"}
	responses.On("Store", mock.Anything, response, interfaces.ResponseType).
		Return(interfaces.ContentID{}, errors.New("bucket gone"))

	outputs := &MockStorageBackend{name: "outputs"}
	outputs.On("Store", mock.Anything, []byte("MTA="), interfaces.OutputType).
		Return(interfaces.ContentID{}, errors.New("disk full"))

	archiver := &Archiver{
		outputs:   map[string]interfaces.StorageBackend{"file:///outputs": outputs},
		responses: responses,
		log:       discardLogger(),
	}
	archived := archiver.Archive(context.Background(), []Output{
		{Type: "result", Link: "file:///outputs", Blob: "MTA="},
	}, response)

	assert.Empty(t, archived)
	outputs.AssertExpectations(t)
	responses.AssertExpectations(t)
}
