package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// Output is a packed output item to be archived at Link.
type Output struct {
	Type string
	Link string
	Blob string
}

// Archived records where an output or response ended up.
type Archived struct {
	Location  string
	ContentID interfaces.ContentID
}

// Archiver stores work-order outputs whose output link names one of the
// operator-configured output locations, and whole responses in an optional
// fixed backend. Links naming anything else are ignored. Failures are
// logged and reported only through the returned slice.
type Archiver struct {
	outputs   map[string]interfaces.StorageBackend // StorageBackendLocation.Target() -> backend
	responses interfaces.StorageBackend
	log       *slog.Logger
}

// NewArchiver opens one backend per allowed output location. responses may
// be nil.
func NewArchiver(factory interfaces.StorageBackendFactory, outputLocations []interfaces.StorageBackendLocation, responses interfaces.StorageBackend, log *slog.Logger) (*Archiver, error) {
	outputs := make(map[string]interfaces.StorageBackend, len(outputLocations))
	for _, location := range outputLocations {
		backend, err := factory.StorageBackendFor(location)
		if err != nil {
			return nil, fmt.Errorf("output location %s: %w", location.Target(), err)
		}
		outputs[location.Target()] = backend
	}

	return &Archiver{
		outputs:   outputs,
		responses: responses,
		log:       log,
	}, nil
}

// Archive stores every output whose link is an allowed output location,
// then the response itself.
func (a *Archiver) Archive(ctx context.Context, outputs []Output, response []byte) []Archived {
	var archived []Archived

	for _, output := range outputs {
		if output.Link == "" || output.Blob == "" {
			continue
		}
		backend, ok := a.outputBackend(output.Link)
		if !ok {
			a.log.Debug("Output link is not an allowed output location",
				slog.String("type", output.Type),
				slog.String("link", output.Link))
			continue
		}

		id, err := backend.Store(ctx, []byte(output.Blob), interfaces.OutputType)
		if err != nil {
			a.log.Warn("Failed to archive output",
				slog.String("type", output.Type),
				slog.String("backend", backend.Name()),
				"err", err)
			continue
		}
		archived = append(archived, Archived{Location: output.Link, ContentID: id})
	}

	if a.responses != nil && len(response) > 0 {
		id, err := a.responses.Store(ctx, response, interfaces.ResponseType)
		if err != nil {
			a.log.Warn("Failed to archive response",
				slog.String("backend", a.responses.Name()),
				"err", err)
		} else {
			archived = append(archived, Archived{Location: a.responses.LocationURI(), ContentID: id})
		}
	}

	return archived
}

func (a *Archiver) outputBackend(link string) (interfaces.StorageBackend, bool) {
	location, err := interfaces.ParseStorageLocation(link)
	if err != nil {
		return nil, false
	}
	backend, ok := a.outputs[location.Target()]
	return backend, ok
}
