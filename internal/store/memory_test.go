package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"park-ops/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, store.PathRides, json.RawMessage(`[{"id":1}]`)))

	val, err := s.Get(ctx, store.PathRides)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(val))

	// Returned value does not alias the stored one
	val[0] = 'x'
	again, err := s.Get(ctx, store.PathRides)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(again))

	require.NoError(t, s.Set(ctx, store.PathRides, nil))
	val, err = s.Get(ctx, store.PathRides)
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryStore_UnknownPath(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrUnknownPath)

	_, err = s.Subscribe(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrUnknownPath)
}

func TestMemoryStore_Subscribe(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Subscribe(ctx, store.PathHandovers)
	require.NoError(t, err)

	initial := <-ch
	assert.Equal(t, store.PathHandovers, initial.Path)
	assert.Nil(t, initial.Value)

	require.NoError(t, s.Update(ctx, store.PathHandovers, func(json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}))

	select {
	case snap := <-ch:
		assert.Equal(t, "[]", string(snap.Value))
	case <-time.After(time.Second):
		t.Fatal("no snapshot after update")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestEmitter_ClientCount(t *testing.T) {
	e := store.NewEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	e.Subscribe(ctx, store.PathRides, nil)
	e.Subscribe(ctx, store.PathRides, nil)
	assert.Equal(t, 2, e.ClientCount(store.PathRides))

	cancel()
	assert.Eventually(t, func() bool {
		return e.ClientCount(store.PathRides) == 0
	}, time.Second, 10*time.Millisecond)
}
