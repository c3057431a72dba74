package localstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "pacienteSelecionado")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "pacienteSelecionado", []byte(`{"id":55}`)))
	got, err := s.Load(ctx, "pacienteSelecionado")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":55}`, string(got))

	require.NoError(t, s.Save(ctx, "pacienteSelecionado", []byte(`{"id":56}`)))
	got, err = s.Load(ctx, "pacienteSelecionado")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":56}`, string(got))

	require.NoError(t, s.Delete(ctx, "pacienteSelecionado"))
	_, err = s.Load(ctx, "pacienteSelecionado")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "pacienteSelecionado"))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)

	_, err = s.Load(context.Background(), "../escape")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	exerciseStore(t, NewRedisStore(client, "reception:", 0))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "reception:", time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("reception:k"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
