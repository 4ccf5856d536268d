package fence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin_NewerSupersedesOlder(t *testing.T) {
	f := New()

	first := f.Begin("client-a", "text")
	assert.True(t, f.Current(first))

	second := f.Begin("client-a", "text")
	assert.False(t, f.Current(first))
	assert.True(t, f.Current(second))
}

func TestBegin_KeysAreIndependent(t *testing.T) {
	f := New()

	text := f.Begin("client-a", "text")
	f.Begin("client-a", "image")
	f.Begin("client-b", "text")

	assert.True(t, f.Current(text))
	assert.Equal(t, 3, f.Len())
}

func TestSweep(t *testing.T) {
	f := New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	old := f.Begin("client-a", "text")
	now = now.Add(time.Hour)
	fresh := f.Begin("client-b", "text")

	assert.Equal(t, 1, f.Sweep(30*time.Minute))
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.Current(old), "swept key has no newer token")
	assert.True(t, f.Current(fresh))
}

func TestBegin_ConcurrentLastOneWins(t *testing.T) {
	f := New()

	var wg sync.WaitGroup
	tokens := make(chan Token, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- f.Begin("client-a", "parse")
		}()
	}
	wg.Wait()
	close(tokens)

	current := 0
	for tok := range tokens {
		if f.Current(tok) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	f := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.RunSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "sweeper did not stop")
	}
}

func TestBegin_AfterSweepSupersedesInFlight(t *testing.T) {
	f := New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	inFlight := f.Begin("client-a", "text")
	now = now.Add(time.Hour)
	require.Equal(t, 1, f.Sweep(time.Minute))

	newer := f.Begin("client-a", "text")
	assert.NotEqual(t, inFlight, newer)
	assert.False(t, f.Current(inFlight))
	assert.True(t, f.Current(newer))
}
