package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// exercise runs the shared contract against any Store.
func exercise(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "baches-auth")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "baches-auth", []byte(`{"token":"t","user":"u"}`)))
	v, err := store.Get(ctx, "baches-auth")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t","user":"u"}`, string(v))

	require.NoError(t, store.Set(ctx, "baches-auth", []byte("new")))
	v, err = store.Get(ctx, "baches-auth")
	require.NoError(t, err)
	assert.Equal(t, "new", string(v))

	require.NoError(t, store.Set(ctx, "baches-reports:ana", []byte("[]")))
	require.NoError(t, store.Set(ctx, "baches-reports:bob", []byte("[]")))
	require.NoError(t, store.Set(ctx, "baches-reportsX", []byte("[]")))

	keys, err := store.Keys(ctx, "baches-reports:")
	require.NoError(t, err)
	assert.Equal(t, []string{"baches-reports:ana", "baches-reports:bob"}, keys)

	require.NoError(t, store.Delete(ctx, "baches-auth"))
	require.NoError(t, store.Delete(ctx, "baches-auth"))
	_, err = store.Get(ctx, "baches-auth")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Contract(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite_Contract(t *testing.T) {
	exercise(t, openSQLite(t))
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	v[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestSQLite_KeysTreatsWildcardsLiterally(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a_b:1", []byte("1")))
	require.NoError(t, store.Set(ctx, "axb:2", []byte("2")))
	require.NoError(t, store.Set(ctx, "a%b:3", []byte("3")))

	keys, err := store.Keys(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b:1"}, keys)

	keys, err = store.Keys(ctx, "a%")
	require.NoError(t, err)
	assert.Equal(t, []string{"a%b:3"}, keys)
}

func TestSQLite_SetNilStoresEmpty(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", nil))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, `baches-reports:%`, likePrefix("baches-reports:"))
	assert.Equal(t, `a\_b\%c\\%`, likePrefix(`a_b%c\`))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `baches-reports:`, escapeGlob("baches-reports:"))
	assert.Equal(t, `a\*b\?\[c\]`, escapeGlob("a*b?[c]"))
}
