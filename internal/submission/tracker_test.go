package submission

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, tr *Tracker, r Record)
	}{
		{
			name: "track and get",
			fn: func(t *testing.T, tr *Tracker, r Record) {
				got, ok := tr.Get(r.ID)
				require.True(t, ok)
				assert.Equal(t, r, got)
				require.ErrorIs(t, tr.Track(r), ErrDuplicateID)
			},
		},
		{
			name: "apply unknown id",
			fn: func(t *testing.T, tr *Tracker, r Record) {
				_, err := tr.Apply(uuid.New(), StatusReceived)
				require.ErrorIs(t, err, ErrNotTracked)
			},
		},
		{
			name: "apply keeps finalized",
			fn: func(t *testing.T, tr *Tracker, r Record) {
				_, err := tr.Apply(r.ID, StatusFinalized)
				require.NoError(t, err)
				_, err = tr.Apply(r.ID, StatusAbsent)
				require.ErrorIs(t, err, ErrFinalized)
				got, _ := tr.Get(r.ID)
				assert.Equal(t, StatusFinalized, got.Status)
			},
		},
		{
			name: "retry replaces record",
			fn: func(t *testing.T, tr *Tracker, r Record) {
				_, err := tr.Retry(r.ID)
				require.ErrorIs(t, err, ErrNotAbsent)

				_, err = tr.Apply(r.ID, StatusAbsent)
				require.NoError(t, err)
				next, err := tr.Retry(r.ID)
				require.NoError(t, err)

				_, ok := tr.Get(r.ID)
				assert.False(t, ok)
				got, ok := tr.Get(next.ID)
				require.True(t, ok)
				assert.Equal(t, StatusLocal, got.Status)
				assert.Len(t, tr.Records(), 1)
			},
		},
		{
			name: "remove only absent",
			fn: func(t *testing.T, tr *Tracker, r Record) {
				require.ErrorIs(t, tr.Remove(r.ID), ErrNotAbsent)
				_, err := tr.Apply(r.ID, StatusAbsent)
				require.NoError(t, err)
				require.NoError(t, tr.Remove(r.ID))
				assert.Empty(t, tr.Records())
				require.ErrorIs(t, tr.Remove(r.ID), ErrNotTracked)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTracker()
			r := NewRecord("ref", false)
			require.NoError(t, tr.Track(r))
			tc.fn(t, tr, r)
		})
	}
}

func TestTrackerPublishes(t *testing.T) {
	tr := NewTracker()
	r := NewRecord("ref", false)
	require.NoError(t, tr.Track(r))

	var updates []Update
	unsubscribe := tr.Subscribe(func(u Update) { updates = append(updates, u) })

	_, err := tr.Apply(r.ID, StatusReceived)
	require.NoError(t, err)
	_, err = tr.Apply(r.ID, StatusReceived)
	require.NoError(t, err)
	_, err = tr.Apply(r.ID, StatusAbsent)
	require.NoError(t, err)
	next, err := tr.Retry(r.ID)
	require.NoError(t, err)

	require.Len(t, updates, 3)
	assert.Equal(t, UpdateStatus, updates[0].Kind)
	assert.Equal(t, MessagePending, updates[0].Actions.Message)
	assert.Equal(t, StatusAbsent, updates[1].Record.Status)
	assert.True(t, updates[1].Actions.RetryRemove)
	assert.Equal(t, UpdateRetried, updates[2].Kind)
	assert.Equal(t, r.ID, updates[2].Previous)
	assert.Equal(t, next.ID, updates[2].Record.ID)

	unsubscribe()
	tr.Refresh()
	assert.Len(t, updates, 3)
}

func TestTrackerRefreshIsIdempotent(t *testing.T) {
	tr := NewTracker()
	a := NewRecord("a", false)
	b := NewRecord("b", true)
	require.NoError(t, tr.Track(a))
	require.NoError(t, tr.Track(b))

	var seen []Update
	tr.Subscribe(func(u Update) { seen = append(seen, u) })

	tr.Refresh()
	first := append([]Update(nil), seen...)
	seen = seen[:0]
	tr.Refresh()

	assert.Equal(t, first, seen)
	assert.Len(t, first, 2)
	for _, u := range first {
		assert.Equal(t, UpdateRefreshed, u.Kind)
	}
	assert.Len(t, tr.Records(), 2)
}

func TestTrackerSetReference(t *testing.T) {
	tr := NewTracker()
	r := NewRecord("", false)
	require.NoError(t, tr.Track(r))

	var kinds []UpdateKind
	tr.Subscribe(func(u Update) { kinds = append(kinds, u.Kind) })

	got, err := tr.SetReference(r.ID, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", got.Reference)
	_, err = tr.SetReference(r.ID, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, []UpdateKind{UpdateReference}, kinds)

	_, err = tr.SetReference(uuid.New(), "tx-2")
	require.ErrorIs(t, err, ErrNotTracked)
}

func TestTrackerPublishesInCommitOrder(t *testing.T) {
	tr := NewTracker()
	r := NewRecord("ref", false)
	require.NoError(t, tr.Track(r))

	var (
		mu        sync.Mutex
		published []Status
		entered   = make(chan struct{})
		release   = make(chan struct{})
	)
	tr.Subscribe(func(u Update) {
		if u.Record.Status == StatusCommitted {
			close(entered)
			<-release
		}
		mu.Lock()
		published = append(published, u.Record.Status)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := tr.Apply(r.ID, StatusCommitted)
		assert.NoError(t, err)
	}()
	<-entered
	go func() {
		defer wg.Done()
		_, err := tr.Apply(r.ID, StatusFinalized)
		assert.NoError(t, err)
	}()
	close(release)
	wg.Wait()

	got, _ := tr.Get(r.ID)
	assert.Equal(t, StatusFinalized, got.Status)
	assert.Equal(t, []Status{StatusCommitted, StatusFinalized}, published)
}

func TestTrackerUntrack(t *testing.T) {
	tr := NewTracker()
	r := NewRecord("ref", false)
	require.NoError(t, tr.Track(r))
	_, err := tr.Apply(r.ID, StatusCommitted)
	require.NoError(t, err)

	var updates []Update
	tr.Subscribe(func(u Update) { updates = append(updates, u) })

	assert.True(t, tr.Untrack(r.ID))
	assert.False(t, tr.Untrack(r.ID))
	assert.Empty(t, tr.Records())
	assert.Empty(t, updates)

	// The same id can be tracked again with a new status.
	r.Status = StatusFinalized
	require.NoError(t, tr.Track(r))
	got, ok := tr.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFinalized, got.Status)
}
