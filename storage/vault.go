package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// VaultBackend keeps archived content as KV v2 secrets, one secret per
// content ID under <dataPath>/<content type>/.
type VaultBackend struct {
	client    *api.Client
	kv        *api.KVv2
	mountPath string
	dataPath  string
	log       *slog.Logger
	location  string
}

// NewVaultBackend uses token auth. An empty token leaves the client with
// VAULT_TOKEN from the environment.
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")
	host := strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://")

	return &VaultBackend{
		client:    client,
		kv:        client.KVv2(mountPath),
		mountPath: mountPath,
		dataPath:  dataPath,
		log:       log,
		location:  "vault://" + path.Join(host, mountPath, dataPath),
	}, nil
}

func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	secret, err := b.kv.Get(ctx, b.secretPath(id, contentType))
	if errors.Is(err, api.ErrSecretNotFound) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	content, ok := secret.Data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("secret %s has no content", id)
	}
	if interfaces.ComputeID([]byte(content)) != id {
		return nil, fmt.Errorf("secret %s does not match its content ID", id)
	}
	return []byte(content), nil
}

func (b *VaultBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	start := time.Now()

	_, err := b.kv.Put(ctx, b.secretPath(id, contentType), map[string]interface{}{
		"content": string(data),
		"type":    contentType.String(),
	})
	if err != nil {
		return id, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in Vault",
		slog.String("contentID", id.String()),
		slog.String("type", contentType.String()),
		slog.Duration("duration", time.Since(start)))
	return id, nil
}

// Available requires Vault to be initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

func (b *VaultBackend) LocationURI() string {
	return b.location
}

// secretPath is relative to the mount; KVv2 inserts the data/ segment.
func (b *VaultBackend) secretPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(b.dataPath, contentType.String(), id.String())
}
