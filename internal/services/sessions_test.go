package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ledger/memory"
)

type countingDocs struct {
	*memory.Store
	loads atomic.Int64
	gate  chan struct{}
}

func (c *countingDocs) Load(ctx context.Context, username string) (*core.Document, error) {
	c.loads.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Store.Load(ctx, username)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSessionRebuiltAfterIdleExpiry(t *testing.T) {
	ctx := context.Background()
	docs := &countingDocs{Store: memory.New(nil)}
	c := &clock{now: fixedNow}
	var evicted []string
	st := NewSessionStore(docs, 10, time.Minute,
		WithSessionClock(c.Now),
		WithEvictHook(func(id string, _ *Session) { evicted = append(evicted, id) }))

	s1, err := st.Create(ctx, "sid", "alice")
	require.NoError(t, err)
	require.NoError(t, s1.doc.SetIncome(s1.month, core.MustParseMoney("5")))

	c.Advance(30 * time.Second)
	got, err := st.Get(ctx, "sid", "alice")
	require.NoError(t, err)
	assert.Same(t, s1, got, "access inside the idle window keeps the session")

	c.Advance(61 * time.Second)
	rebuilt, err := st.Get(ctx, "sid", "alice")
	require.NoError(t, err)
	assert.NotSame(t, s1, rebuilt)
	assert.Equal(t, []string{"sid"}, evicted)

	rec, err := rebuilt.doc.View(rebuilt.month)
	require.NoError(t, err)
	assert.True(t, rec.Income.IsZero(), "unsaved edits are gone after a rebuild")
	assert.Equal(t, int64(2), docs.loads.Load())
}

func TestConcurrentRebuildLoadsOnce(t *testing.T) {
	ctx := context.Background()
	docs := &countingDocs{Store: memory.New(nil), gate: make(chan struct{})}
	st := NewSessionStore(docs, 10, time.Hour)

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Session, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := st.Get(ctx, "sid", "alice")
			assert.NoError(t, err)
			results[i] = s
		}()
	}

	// let every goroutine reach the flight before releasing the load
	assert.Eventually(t, func() bool { return docs.loads.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(docs.gate)
	wg.Wait()

	assert.Equal(t, int64(1), docs.loads.Load())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, st.Len())
}

func TestSessionBelongsToUser(t *testing.T) {
	ctx := context.Background()
	st := NewSessionStore(memory.New(nil), 10, time.Hour)
	_, err := st.Create(ctx, "sid", "alice")
	require.NoError(t, err)

	_, err = st.Get(ctx, "sid", "mallory")
	assert.ErrorIs(t, err, core.ErrSessionExpired)

	st.Drop("sid")
	_, err = st.Get(ctx, "sid", "alice")
	assert.ErrorIs(t, err, core.ErrSessionExpired)
	assert.Equal(t, 0, st.Len())
}

func TestSessionCapacityEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	st := NewSessionStore(memory.New(nil), 2, time.Hour)
	for _, id := range []string{"a", "b", "c"} {
		_, err := st.Create(ctx, id, "alice")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, uint64(1), st.Stats().Evictions)
}
