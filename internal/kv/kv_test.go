package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyTheme, []byte(`"dark"`)))
	value, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"dark"`, string(value))

	require.NoError(t, s.Set(ctx, KeyTheme, []byte(`"light"`)))
	value, ok, err = s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"light"`, string(value))

	require.NoError(t, s.Set(ctx, KeyArchivedInvoices, []byte(`[]`)))
	value, _, err = s.Get(ctx, KeyArchivedInvoices)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)

	require.NoError(t, m.Close())
	_, _, err := m.Get(context.Background(), KeyTheme)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(context.Background(), KeyTheme, nil), ErrClosed)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	f, err := NewFile(dir)
	require.NoError(t, err)
	exerciseStore(t, f)

	_, err = os.Stat(filepath.Join(dir, KeyTheme+".json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	value, ok, err := reopened.Get(context.Background(), KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"light"`, string(value))
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, f.Set(context.Background(), "../escape", []byte("x")))
	_, _, err = f.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Ping(context.Background()))
	exerciseStore(t, r)

	raw, err := mr.Get(redisKeyPrefix + KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, `"light"`, raw)
	assert.Zero(t, mr.TTL(redisKeyPrefix+KeyTheme))
}

func TestRedisStorePingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = r.Close() })
	mr.Close()

	assert.Error(t, r.Ping(context.Background()))
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("DELIVERYDESK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DELIVERYDESK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	p, err := NewPostgres(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Close()
	})

	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	})

	_, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Set(ctx, key, []byte(`{"invoice":1}`)))
	require.NoError(t, p.Set(ctx, key, []byte(`{"invoice":2}`)))

	value, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"invoice":2}`, string(value))
}
