package interfaces

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrContentNotFound    = errors.New("content not found")
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned for malformed or unsupported
	// locations, see ParseStorageLocation.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// ContentID is the SHA-256 digest of archived content.
type ContentID [32]byte

func ComputeID(data []byte) ContentID {
	return ContentID(sha256.Sum256(data))
}

func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseContentID reads the hex form printed by String.
func ParseContentID(s string) (ContentID, error) {
	var id ContentID
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid content ID %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid content ID %q: want %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// ContentType selects the namespace archived content is stored under.
type ContentType int

const (
	// OutputType holds BLOBs of packed output items.
	OutputType ContentType = iota
	// ResponseType holds complete serialized JSON-RPC responses.
	ResponseType
)

func (ct ContentType) String() string {
	switch ct {
	case OutputType:
		return "output"
	case ResponseType:
		return "response"
	default:
		return "unknown"
	}
}

// StorageScheme is the URI scheme naming a backend kind.
type StorageScheme string

const (
	SchemeFile  StorageScheme = "file"
	SchemeS3    StorageScheme = "s3"
	SchemeIPFS  StorageScheme = "ipfs"
	SchemeVault StorageScheme = "vault"
)

// StorageBackendLocation is a parsed storage URI:
//
//	scheme://[user[:password]@]host[:port][/path][?params]
//
// How user and password are interpreted depends on the scheme (S3 access
// key pair, Vault token).
type StorageBackendLocation struct {
	Raw      string
	Scheme   StorageScheme
	Host     string
	Path     string
	Query    url.Values
	User     string
	Password string
}

// ParseStorageLocation parses uri, accepting only the supported schemes.
func ParseStorageLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := StorageScheme(parsed.Scheme)
	switch scheme {
	case SchemeFile, SchemeS3, SchemeIPFS, SchemeVault:
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	location := StorageBackendLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
	}
	if parsed.User != nil {
		location.User = parsed.User.Username()
		location.Password, _ = parsed.User.Password()
	}
	return location, nil
}

func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// Target identifies the location without credentials or parameters, as
// scheme://host/path. Output links are matched against it.
func (loc StorageBackendLocation) Target() string {
	return string(loc.Scheme) + "://" + loc.Host + "/" + strings.Trim(loc.Path, "/")
}

// Param returns the query parameter name, or "" when absent.
func (loc StorageBackendLocation) Param(name string) string {
	return loc.Query.Get(name)
}

// BoolParam returns def when name is absent or not a boolean.
func (loc StorageBackendLocation) BoolParam(name string, def bool) bool {
	value, err := strconv.ParseBool(loc.Query.Get(name))
	if err != nil {
		return def
	}
	return value
}

// StorageBackend is content-addressed storage for archived work-order data.
type StorageBackend interface {
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)
	// Store returns ComputeID(data).
	Store(ctx context.Context, data []byte, contentType ContentType) (ContentID, error)
	Available(ctx context.Context) bool

	// Name identifies the backend in logs.
	Name() string
	// LocationURI identifies the backend without credentials.
	LocationURI() string
}

// StorageBackendFactory opens backends for locations.
type StorageBackendFactory interface {
	StorageBackendFor(location StorageBackendLocation) (StorageBackend, error)
	CreateMultiBackend(locations []StorageBackendLocation) (StorageBackend, error)
}
