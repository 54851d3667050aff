package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "")
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.True(t, got.IsNone())

	require.NoError(t, s.Set(ctx, "greeting", "hello"))
	got, err = s.Get(ctx, "greeting")
	require.NoError(t, err)
	v, ok := got.Get()
	require.True(t, ok)
	require.Equal(t, "hello", v)

	require.NoError(t, s.Set(ctx, "greeting", "goodbye"))
	got, err = s.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "goodbye", got.GetOr(""))

	require.NoError(t, s.Delete(ctx, "greeting"))
	got, err = s.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, got.IsNone())

	// Absent key: still a no-op.
	require.NoError(t, s.Delete(ctx, "greeting"))
}

func TestValuesSurviveReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "persisted", "across reopen"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "persisted")
	require.NoError(t, err)
	require.Equal(t, "across reopen", got.GetOr(""))
}

func TestNilStoreReportsNotInitialized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var s *Store

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, s.Set(ctx, "k", "v"), ErrNotInitialized)
	require.ErrorIs(t, s.Delete(ctx, "k"), ErrNotInitialized)
	require.NoError(t, s.Close())
}

func TestQueryErrorsCarrySentinel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrQueryFailed), "got %v", err)
	require.ErrorIs(t, s.Set(ctx, "k", "v"), ErrQueryFailed)
}
