package callcontext

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TakeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "CA123", "Billing dispute on invoice 4471"))

	issue, ok, err := s.TakeIfPresent(ctx, "CA123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Billing dispute on invoice 4471", issue)

	issue, ok, err = s.TakeIfPresent(ctx, "CA123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, issue)
}

func TestMemoryStore_UnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.TakeIfPresent(ctx, "CA999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.TakeIfPresent(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Put(ctx, "", "x"), ErrEmptyCallSid)

	require.NoError(t, s.Put(ctx, "CA1", ""))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "CA1", "first"))
	require.NoError(t, s.Put(ctx, "CA1", "second"))

	issue, ok, err := s.TakeIfPresent(ctx, "CA1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", issue)
}

func TestMemoryStore_ConcurrentTakeSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "CA1", "issue"))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := s.TakeIfPresent(ctx, "CA1"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryStore_ConcurrentDistinctKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithShards(4))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("CA%03d", i)
			assert.NoError(t, s.Put(ctx, sid, "issue "+sid))
			issue, ok, err := s.TakeIfPresent(ctx, sid)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "issue "+sid, issue)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStore(WithTTL(time.Minute), WithClock(clock))

	require.NoError(t, s.Put(ctx, "CA1", "stale"))
	require.NoError(t, s.Put(ctx, "CA2", "also stale"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Put(ctx, "CA3", "fresh"))

	_, ok, err := s.TakeIfPresent(ctx, "CA1")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be returned")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	issue, ok, err := s.TakeIfPresent(ctx, "CA3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", issue)
}

func TestMemoryStore_RunStopsOnCancel(t *testing.T) {
	s := NewMemoryStore(WithTTL(time.Millisecond))
	require.NoError(t, s.Put(context.Background(), "CA1", "issue"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
