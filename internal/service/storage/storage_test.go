package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := backend.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Put(ctx, "raw-key", []byte(`[1]`)))
	require.NoError(t, backend.Put(ctx, "raw-key", []byte(`[1,2]`)))

	value, err := backend.Get(ctx, "raw-key")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(value))

	repo := NewThreadRepository(backend, "")
	require.NoError(t, repo.Save(ctx, sampleThreads()))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Marketing Campaign Discussion", loaded[0].Subject)
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()
	exerciseBackend(t, backend)
}

func TestBoltBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crmdesk.db")
	backend, err := NewBoltBackend(path)
	require.NoError(t, err)
	exerciseBackend(t, backend)
	require.NoError(t, backend.Close())
	require.NoError(t, backend.Close())

	reopened, err := NewBoltBackend(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(context.Background(), "raw-key")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(value))
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	defer backend.Close()
	exerciseBackend(t, backend)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-")
	}

	assert.Error(t, backend.Put(context.Background(), "../escape", []byte("x")))
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crmdesk.sqlite")
	backend, err := NewSQLiteBackend(context.Background(), path)
	require.NoError(t, err)
	defer backend.Close()
	exerciseBackend(t, backend)
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("CRMDESK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CRMDESK_TEST_REDIS_URL not set")
	}

	backend, err := NewRedisBackend(context.Background(), url)
	require.NoError(t, err)
	defer backend.Close()
	exerciseBackend(t, backend)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := Open(ctx, Options{Driver: DriverBolt, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = Open(ctx, Options{Driver: DriverFile, Path: filepath.Join(dir, "files")})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, backend)

	_, err = Open(ctx, Options{Driver: DriverRedis})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "etcd"})
	assert.Error(t, err)
}
