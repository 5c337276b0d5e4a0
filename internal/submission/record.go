package submission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record tracks one locally initiated submission. Records are values: Apply
// and Retry return a new Record instead of modifying the receiver.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Reference    string    `json:"reference,omitempty"`
	Status       Status    `json:"status"`
	IsReadOnly   bool      `json:"isReadOnly"`
	HasTransfers bool      `json:"hasTransfers"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewRecord creates a record in StatusLocal.
func NewRecord(reference string, readOnly bool) Record {
	now := time.Now().UTC()
	return Record{
		ID:         uuid.New(),
		Reference:  reference,
		Status:     StatusLocal,
		IsReadOnly: readOnly,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Actions returns the eligibility row for the record.
func (r Record) Actions() Actions {
	return Eligibility(r.Status, r.IsReadOnly)
}

// Apply returns the record moved to status. Reporting the current status
// again is a no-op. Finalized and absent records reject any other status, and
// no record moves back to StatusLocal: the chain never reports it.
func (r Record) Apply(status Status) (Record, error) {
	if !status.IsValid() {
		return r, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(status))
	}
	if status == r.Status {
		return r, nil
	}
	if status == StatusLocal {
		return r, fmt.Errorf("%w: cannot move %s back to %s", ErrNotChainStatus, r.Status, status)
	}
	switch r.Status {
	case StatusFinalized:
		return r, fmt.Errorf("%w: cannot move to %s", ErrFinalized, status)
	case StatusAbsent:
		return r, fmt.Errorf("%w: cannot move to %s", ErrAbsent, status)
	case StatusLocal, StatusReceived, StatusCommitted:
	}

	next := r
	next.Status = status
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

// Retry returns a fresh record replacing a failed one. The failed record is
// left as is; callers discard it.
func (r Record) Retry() (Record, error) {
	if r.Status != StatusAbsent {
		return Record{}, fmt.Errorf("%w: status is %s", ErrNotAbsent, r.Status)
	}
	return NewRecord("", r.IsReadOnly), nil
}
