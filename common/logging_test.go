package common

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name string
		opts LoggingOpts
	}{
		{name: "text", opts: LoggingOpts{}},
		{name: "json debug", opts: LoggingOpts{JSON: true, Debug: true, Service: "svc", Version: "v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := SetupLogger(&tt.opts)
			require.NotNil(t, logger)
			require.Equal(t, tt.opts.Debug, logger.Enabled(t.Context(), slog.LevelDebug))
		})
	}
}
