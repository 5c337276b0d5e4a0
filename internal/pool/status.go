// Package pool watches the staking pools that wallet accounts delegate to and
// reports accounts whose pool is about to close.
package pool

import (
	"context"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
)

// Status is the chain's view of a baker pool.
type Status struct {
	BakerID       account.BakerID       `json:"bakerId"`
	PendingChange account.PendingChange `json:"bakerStakePendingChange"`
}

// IsClosing reports whether the pool is scheduled for removal.
func (s Status) IsClosing() bool {
	return s.PendingChange.IsRemoval()
}

// StatusQuerier fetches the status of a single pool.
type StatusQuerier interface {
	PoolStatus(ctx context.Context, id account.BakerID) (Status, error)
}
