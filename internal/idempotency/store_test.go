package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReserveOnce(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "1:POST:/loans:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "1:POST:/loans:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = s.Reserve(ctx, "1:POST:/loans:other", time.Minute)
	assert.True(t, ok)
}

func TestMemoryStore_Release(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	ok, _ := s.Reserve(ctx, "k", time.Minute)
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "k"))

	ok, _ = s.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestMemoryStore_Expires(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	ok, _ := s.Reserve(ctx, "k", 10*time.Millisecond)
	require.True(t, ok)
	time.Sleep(30 * time.Millisecond)

	ok, _ = s.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestMemoryStore_ConcurrentReserve(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Reserve(context.Background(), "same", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
