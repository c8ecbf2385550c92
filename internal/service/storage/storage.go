package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultDir = ".crmdesk"

const (
	DriverBolt   = "bolt"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var (
	// ErrNotFound is returned when nothing has been stored under a key yet.
	ErrNotFound = errors.New("storage: key not found")
	// ErrMalformedRecord is returned when a stored value cannot be decoded or fails validation.
	ErrMalformedRecord = errors.New("storage: malformed record")
)

// Backend is a flat key-value store holding opaque blobs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

type Options struct {
	Driver   string
	Path     string
	RedisURL string
}

// Open creates the backend selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverBolt, "":
		path, err := resolvePath(opts.Path, "crmdesk.db")
		if err != nil {
			return nil, err
		}
		return NewBoltBackend(path)
	case DriverFile:
		path, err := resolvePath(opts.Path, "data")
		if err != nil {
			return nil, err
		}
		return NewFileBackend(path)
	case DriverSQLite:
		path, err := resolvePath(opts.Path, "crmdesk.sqlite")
		if err != nil {
			return nil, err
		}
		return NewSQLiteBackend(ctx, path)
	case DriverRedis:
		return NewRedisBackend(ctx, opts.RedisURL)
	case DriverMemory:
		return NewMemoryBackend(), nil
	default:
	}

	return nil, fmt.Errorf("unsupported storage driver: %s", opts.Driver)
}

func resolvePath(path string, name string) (string, error) {
	if path != "" {
		return os.ExpandEnv(path), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, defaultDir, name), nil
}
