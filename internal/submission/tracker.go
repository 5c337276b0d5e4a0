package submission

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/feed"
)

// UpdateKind says what happened to the record carried by an Update.
type UpdateKind uint8

const (
	UpdateTracked UpdateKind = iota
	UpdateStatus
	UpdateReference
	UpdateRetried
	UpdateRemoved
	UpdateRefreshed
)

// Update is published for every change the tracker makes. For UpdateRetried
// Previous holds the ID of the discarded failed record.
type Update struct {
	Kind     UpdateKind
	Record   Record
	Actions  Actions
	Previous uuid.UUID
}

// Tracker is the single writer of submission statuses. It is safe for
// concurrent use. Subscribers are notified synchronously, one change at a
// time and in the order the changes were made. They may read the tracker but
// must not change it.
type Tracker struct {
	// pub is held from a change through its publication.
	pub sync.Mutex

	mu      sync.RWMutex
	records map[uuid.UUID]Record
	updates feed.Feed[Update]
}

func NewTracker() *Tracker {
	return &Tracker{records: make(map[uuid.UUID]Record)}
}

// Track starts tracking r.
func (t *Tracker) Track(r Record) error {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	if _, ok := t.records[r.ID]; ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	t.records[r.ID] = r
	t.mu.Unlock()

	t.publish(UpdateTracked, r, uuid.Nil)
	return nil
}

// Apply moves the record to status. Nothing is published when the status
// does not change.
func (t *Tracker) Apply(id uuid.UUID, status Status) (Record, error) {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	current, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return Record{}, fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	next, err := current.Apply(status)
	if err != nil {
		t.mu.Unlock()
		return current, err
	}
	changed := next.Status != current.Status
	t.records[id] = next
	t.mu.Unlock()

	if changed {
		t.publish(UpdateStatus, next, uuid.Nil)
	}
	return next, nil
}

// SetReference records the chain reference of a submitted record.
func (t *Tracker) SetReference(id uuid.UUID, reference string) (Record, error) {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	current, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return Record{}, fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	if current.Reference == reference {
		t.mu.Unlock()
		return current, nil
	}
	current.Reference = reference
	current.UpdatedAt = time.Now().UTC()
	t.records[id] = current
	t.mu.Unlock()

	t.publish(UpdateReference, current, uuid.Nil)
	return current, nil
}

// Retry replaces a failed record with a fresh one and returns it.
func (t *Tracker) Retry(id uuid.UUID) (Record, error) {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	current, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return Record{}, fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	next, err := current.Retry()
	if err != nil {
		t.mu.Unlock()
		return Record{}, err
	}
	delete(t.records, id)
	t.records[next.ID] = next
	t.mu.Unlock()

	t.publish(UpdateRetried, next, id)
	return next, nil
}

// Untrack stops tracking id whatever its status and reports whether it was
// tracked. Nothing is published; it is used when a record is replaced.
func (t *Tracker) Untrack(id uuid.UUID) bool {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[id]
	delete(t.records, id)
	return ok
}

// Remove drops a failed record. Only absent records can be removed.
func (t *Tracker) Remove(id uuid.UUID) error {
	t.pub.Lock()
	defer t.pub.Unlock()

	t.mu.Lock()
	current, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	if current.Status != StatusAbsent {
		t.mu.Unlock()
		return fmt.Errorf("%w: status is %s", ErrNotAbsent, current.Status)
	}
	delete(t.records, id)
	t.mu.Unlock()

	t.publish(UpdateRemoved, current, uuid.Nil)
	return nil
}

// Refresh republishes every record. It changes nothing and may be called any
// number of times.
func (t *Tracker) Refresh() {
	t.pub.Lock()
	defer t.pub.Unlock()

	for _, r := range t.Records() {
		t.publish(UpdateRefreshed, r, uuid.Nil)
	}
}

func (t *Tracker) Get(id uuid.UUID) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[id]
	return r, ok
}

// Records returns a snapshot of all records ordered by creation time.
func (t *Tracker) Records() []Record {
	t.mu.RLock()
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Subscribe registers fn for updates published after this call.
func (t *Tracker) Subscribe(fn func(Update)) (unsubscribe func()) {
	return t.updates.Subscribe(fn)
}

func (t *Tracker) publish(kind UpdateKind, r Record, previous uuid.UUID) {
	t.updates.Send(Update{Kind: kind, Record: r, Actions: r.Actions(), Previous: previous})
}
