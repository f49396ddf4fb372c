package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/common"
	"github.com/urfave/cli/v2"
)

// SetupLogger builds the process logger from the log flags. Subcommands see
// the flags of their parent app.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String("log-service"),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer applies the shared server flags on top of the default
// HTTP server config.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	cfg := api.NewHTTPServerConfig(listenAddr, logger)
	cfg.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	cfg.EnablePprof = cCtx.Bool(PprofFlag.Name)
	cfg.DrainDuration = time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second
	if timeout := cCtx.Duration(ReadTimeoutFlag.Name); timeout > 0 {
		cfg.ReadTimeout = timeout
	}
	if timeout := cCtx.Duration(WriteTimeoutFlag.Name); timeout > 0 {
		cfg.WriteTimeout = timeout
	}
	return cfg
}

var ServerAddrFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "enclave server to talk to",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:    "log-json",
	EnvVars: []string{"LOG_JSON"},
	Usage:   "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:    "log-debug",
	EnvVars: []string{"LOG_DEBUG"},
	Usage:   "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Usage: "tag every log line with a per-process uuid",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Usage: "serve pprof under /debug",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait after marking the server not ready before shutting down",
}
var ReadTimeoutFlag = &cli.DurationFlag{
	Name:  "read-timeout",
	Usage: "maximum time to read a request, 0 keeps the default of 60s",
}
var WriteTimeoutFlag = &cli.DurationFlag{
	Name:  "write-timeout",
	Usage: "maximum time to write a response, 0 keeps the default of 30s",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	ReadTimeoutFlag,
	WriteTimeoutFlag,
	MetricsAddrFlag,
}
