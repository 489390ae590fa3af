package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "board/goals.json")
	require.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, s.Put(ctx, "board/goals.json", []byte(`[]`)))
	require.NoError(t, s.Put(ctx, "board/goals.json", []byte(`[{"id":"a"}]`)))

	data, err := s.Get(ctx, "board/goals.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	require.NoError(t, s.Delete(ctx, "board/goals.json"))
	require.NoError(t, s.Delete(ctx, "board/goals.json"))

	_, err = s.Get(ctx, "board/goals.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../outside.json", "/etc/passwd", "", "."} {
		assert.Error(t, s.Put(ctx, key, []byte("x")), key)
	}
}
