package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageBackendFactory(t *testing.T) {
	dir, err := os.MkdirTemp("", "workorder-factory-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	factory := NewStorageBackendFactory(discardLogger())

	tests := []struct {
		name     string
		uri      string
		wantName string
		wantErr  bool
	}{
		{name: "file", uri: "file://" + dir, wantName: "file-" + filepath.Base(dir)},
		{name: "s3", uri: "s3://AK:SK@outputs-bucket/archive?region=eu-west-1&endpoint=http://localhost:9000&pathstyle=true", wantName: "s3-outputs-bucket"},
		{name: "ipfs", uri: "ipfs://localhost:5001/workorders?timeout=5s", wantName: "ipfs-localhost:5001"},
		{name: "ipfs bad timeout", uri: "ipfs://localhost:5001/?timeout=soon", wantErr: true},
		{name: "vault", uri: "vault://s.token@localhost:8200/secret/workorders?tls=false", wantName: "vault-secret-workorders"},
		{name: "vault without mount", uri: "vault://localhost:8200", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, err := interfaces.ParseStorageLocation(tt.uri)
			require.NoError(t, err)

			backend, err := factory.StorageBackendFor(location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, backend.Name())
			assert.NotContains(t, backend.LocationURI(), "SK")
		})
	}
}

func TestStorageBackendFactory_CreateMultiBackend(t *testing.T) {
	dir, err := os.MkdirTemp("", "workorder-factory-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	factory := NewStorageBackendFactory(discardLogger())

	locations, err := ParseLocations([]string{"file://" + dir, "vault://localhost:8200"})
	require.NoError(t, err)

	// the broken vault location is skipped
	backend, err := factory.CreateMultiBackend(locations)
	require.NoError(t, err)
	assert.Equal(t, "multi-storage", backend.Name())

	_, err = factory.CreateMultiBackend(locations[1:])
	assert.Error(t, err)

	_, err = ParseLocations([]string{"ftp://example.com/outputs"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
