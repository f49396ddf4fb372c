package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the enclave server's listeners.
type HTTPServerConfig struct {
	ListenAddr string
	// MetricsAddr serves /metrics. When empty, collectors still record but
	// nothing listens.
	MetricsAddr string
	EnablePprof bool
	Log         *slog.Logger

	// DrainDuration is how long /readyz fails before the listener closes.
	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration

	// ReadTimeout bounds reading a whole request, including a body of up to
	// the work-order handler's size limit.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewHTTPServerConfig returns a config with the default timeouts and no
// metrics listener, pprof or drain delay.
func NewHTTPServerConfig(listenAddr string, log *slog.Logger) *HTTPServerConfig {
	return &HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      log,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}
