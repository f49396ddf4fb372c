package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

var fileSubdirs = map[interfaces.ContentType]string{
	interfaces.OutputType:   "outputs",
	interfaces.ResponseType: "responses",
}

// FileBackend archives into a local directory:
//
//	<dir>/outputs/<content id>
//	<dir>/responses/<content id>
type FileBackend struct {
	dir string
	log *slog.Logger
}

func NewFileBackend(dir string, log *slog.Logger) (*FileBackend, error) {
	for _, sub := range fileSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return &FileBackend{dir: dir, log: log}, nil
}

func (b *FileBackend) Fetch(_ context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	p, err := b.path(id, contentType)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// Store is idempotent. Content is written to a temporary file first so a
// concurrent Fetch never sees a partial file.
func (b *FileBackend) Store(_ context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	p, err := b.path(id, contentType)
	if err != nil {
		return id, err
	}

	if _, err := os.Stat(p); err == nil {
		return id, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return id, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return id, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return id, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return id, fmt.Errorf("failed to move content into place: %w", err)
	}

	b.log.Debug("Stored content in file", slog.String("path", p))
	return id, nil
}

func (b *FileBackend) Available(context.Context) bool {
	info, err := os.Stat(b.dir)
	return err == nil && info.IsDir()
}

func (b *FileBackend) Name() string {
	return "file-" + filepath.Base(b.dir)
}

func (b *FileBackend) LocationURI() string {
	return "file://" + b.dir
}

func (b *FileBackend) path(id interfaces.ContentID, contentType interfaces.ContentType) (string, error) {
	sub, ok := fileSubdirs[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type: %v", contentType)
	}
	return filepath.Join(b.dir, sub, id.String()), nil
}
