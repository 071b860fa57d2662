// Package blobstore stores the raw bytes of uploaded datasets.
//
// Backends register themselves with Register from an init function, the
// same way storage backends do; import csvdataset/internal/blobstore/local
// or csvdataset/internal/blobstore/s3 for side effects to make them
// available to New. The "memory" kind is always registered.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no object exists for the id.
var ErrNotFound = errors.New("blobstore: object not found")

// Object is a blob to be stored.
type Object struct {
	Name        string // original filename, used only for the key extension
	ContentType string
	Data        []byte
}

// Ref identifies a stored blob.
type Ref struct {
	ID  string
	URL string
}

// Store persists blobs. Delete is idempotent: deleting a missing id succeeds.
type Store interface {
	Put(ctx context.Context, obj Object) (Ref, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Config selects and configures a backend. Fields not used by the selected
// kind are ignored.
type Config struct {
	Kind string // memory | local | s3

	// local
	Dir string

	// s3
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration

	// Prefix is prepended to every generated key.
	Prefix string
	// BaseURL, when set, is joined with the key to form Ref.URL.
	BaseURL string
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{
		"memory": func(context.Context, Config) (Store, error) { return NewMemory(), nil },
	}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Store using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported blobstore.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewKey returns a fresh object key: prefix, a random UUID, and the
// lowercased extension of name.
func NewKey(prefix, name string) string {
	key := uuid.NewString() + strings.ToLower(path.Ext(name))
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// JoinURL joins base and key with exactly one slash between them.
func JoinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
