package workorder

import (
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockKeyUnwrapper implements interfaces.KeyUnwrapper for testing
type MockKeyUnwrapper struct {
	mock.Mock
}

func (m *MockKeyUnwrapper) UnwrapDataKey(encryptedKey []byte) ([]byte, error) {
	args := m.Called(encryptedKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockSigner implements interfaces.Signer for testing
type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) Sign(payload []byte) (string, string, error) {
	args := m.Called(payload)
	return args.String(0), args.String(1), args.Error(2)
}

// recordingRecorder keeps every observation
type recordingRecorder struct {
	stages   []string
	outcomes []string
}

func (r *recordingRecorder) ObserveWorkOrder(stage, outcome string, _ time.Duration) {
	r.stages = append(r.stages, stage)
	r.outcomes = append(r.outcomes, outcome)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
