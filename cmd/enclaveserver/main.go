package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/tee-workorder-service/api/adminhandler"
	"github.com/ruteri/tee-workorder-service/api/enclavehandler"
	"github.com/ruteri/tee-workorder-service/api/workorderhandler"
	"github.com/ruteri/tee-workorder-service/cmd/flags"
	"github.com/ruteri/tee-workorder-service/cmd/kmscommon"
	"github.com/ruteri/tee-workorder-service/common"
	"github.com/ruteri/tee-workorder-service/dispatch"
	"github.com/ruteri/tee-workorder-service/httpserver"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/ruteri/tee-workorder-service/kms"
	"github.com/ruteri/tee-workorder-service/storage"
	"github.com/ruteri/tee-workorder-service/workorder"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}
var archiveFlag = &cli.StringSliceFlag{
	Name:  "archive",
	Usage: "storage URI to archive every response to (file://, s3://, ipfs://, vault://), repeatable",
}
var outputLinkAllowFlag = &cli.StringSliceFlag{
	Name:  "output-link-allow",
	Usage: "storage URI that work-order OutputLinks may name; outputs linking elsewhere are not archived, repeatable",
}
var placeholderSignerFlag = &cli.BoolFlag{
	Name:  "placeholder-signer",
	Usage: "sign responses with fixed placeholder values instead of the enclave key",
}
var verifyParticipantsFlag = &cli.BoolFlag{
	Name:  "verify-participants",
	Usage: "require ParticipantSignature to recover to ParticipantAddress",
}

func main() {
	serverFlags := append([]cli.Flag{
		listenAddrFlag,
		archiveFlag,
		outputLinkAllowFlag,
		placeholderSignerFlag,
		verifyParticipantsFlag,
		flags.LogServiceFlagFn(common.PackageName),
	}, flags.CommonFlags...)

	app := &cli.App{
		Name:    "enclave-server",
		Usage:   "Process confidential work orders",
		Version: common.Version,
		Flags:   append(serverFlags, kmscommon.KmsFlags...),
		Action:  runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	seed, err := kmscommon.StaticSeed(cCtx)
	if err != nil {
		return err
	}

	archiver, err := newArchiver(cCtx, logger)
	if err != nil {
		return err
	}

	workOrders := workorderhandler.NewHandler(nil, archiver, logger)
	enclaveInfo := enclavehandler.NewHandler(logger)
	handlers := []httpserver.RouteRegistrar{workOrders, enclaveInfo}

	var recovery *kms.SeedRecovery
	if seed == nil {
		recovery, err = kmscommon.NewSeedRecovery(cCtx, logger)
		if err != nil {
			return err
		}
		handlers = append(handlers, adminhandler.NewHandler(recovery, logger))
	}

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))
	server, err := httpserver.New(cfg, handlers...)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	activate := func(seed []byte) error {
		enclaveKMS, err := kmscommon.NewEnclaveKMS(cCtx, seed)
		if err != nil {
			return err
		}
		if err := enclaveInfo.SetInfo(enclaveKMS); err != nil {
			return fmt.Errorf("could not attest enclave keys: %w", err)
		}

		registry, err := dispatch.NewDefaultRegistry()
		if err != nil {
			return err
		}

		var signer interfaces.Signer = enclaveKMS
		if cCtx.Bool(placeholderSignerFlag.Name) {
			logger.Warn("Signing responses with placeholder values")
			signer = kms.PlaceholderSigner{}
		}

		processor := workorder.NewProcessor(registry, enclaveKMS, signer, logger).
			WithRecorder(server.Metrics())
		if cCtx.Bool(verifyParticipantsFlag.Name) {
			processor = processor.WithVerifier(kms.ParticipantSignatureVerifier{Log: logger})
		}
		workOrders.SetProcessor(processor)

		logger.Info("Enclave keys ready",
			"signingAddress", enclaveKMS.SigningAddress().Hex(),
			"contracts", registry.Contracts(),
			"workOrders", registry.WorkOrders())
		return nil
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), cCtx.Duration(kmscommon.BootstrapTimeoutFlag.Name))
	defer cancelBootstrap()
	bootstrapFailed := make(chan error, 1)

	if seed != nil {
		if err := activate(seed); err != nil {
			return err
		}
	} else {
		go func() {
			logger.Info("Waiting for admin seed shares", "threshold", recovery.Status().Threshold)
			recovered, err := recovery.Wait(bootstrapCtx)
			if err == nil {
				err = activate(recovered)
			}
			if err != nil {
				bootstrapFailed <- err
			}
		}()
	}

	server.RunInBackground()

	select {
	case <-exit:
		logger.Info("Shutdown signal received")
	case err = <-bootstrapFailed:
		logger.Error("Seed recovery failed", "err", err)
	}

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return err
}

// newArchiver returns nil when neither responses nor outputs are archived.
func newArchiver(cCtx *cli.Context, logger *slog.Logger) (*storage.Archiver, error) {
	responseURIs := cCtx.StringSlice(archiveFlag.Name)
	outputURIs := cCtx.StringSlice(outputLinkAllowFlag.Name)
	if len(responseURIs) == 0 && len(outputURIs) == 0 {
		return nil, nil
	}

	factory := storage.NewStorageBackendFactory(logger)

	outputLocations, err := storage.ParseLocations(outputURIs)
	if err != nil {
		return nil, err
	}

	var responses interfaces.StorageBackend
	if len(responseURIs) > 0 {
		locations, err := storage.ParseLocations(responseURIs)
		if err != nil {
			return nil, err
		}
		responses, err = factory.CreateMultiBackend(locations)
		if err != nil {
			return nil, fmt.Errorf("could not open archive backends: %w", err)
		}
	}

	return storage.NewArchiver(factory, outputLocations, responses, logger)
}
