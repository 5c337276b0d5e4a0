// Package account holds the wallet's local view of an account.
package account

import (
	"strconv"
	"time"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
)

// BakerID identifies a baker and the staking pool it operates.
type BakerID uint64

func (id BakerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Pending change types reported by the chain for bakers, pools and delegators.
const (
	NoChange           = "NoChange"
	ReduceBakerCapital = "ReduceBakerCapital"
	RemovePool         = "RemovePool"
)

// PendingChange is a scheduled change to a stake.
type PendingChange struct {
	Type          string     `json:"change"`
	EffectiveTime *time.Time `json:"effectiveTime,omitempty"`
}

// IsRemoval reports whether the change closes the pool.
func (p PendingChange) IsRemoval() bool {
	return p.Type == RemovePool
}

// Delegation describes stake delegated from an account. A nil TargetBakerID
// means passive delegation.
type Delegation struct {
	TargetBakerID   *BakerID      `json:"delegationTarget,omitempty"`
	StakedAmount    uint64        `json:"stakedAmount"`
	RestakeEarnings bool          `json:"restakeEarnings"`
	PendingChange   PendingChange `json:"pendingChange"`
}

type Account struct {
	Address      string            `json:"address"`
	Name         string            `json:"name,omitempty"`
	ReadOnly     bool              `json:"readOnly"`
	HasTransfers bool              `json:"hasTransfers"`
	Delegation   *Delegation       `json:"delegation,omitempty"`
	Submission   submission.Record `json:"submission"`
}

// DisplayName returns the account name, or the first eight characters of the
// address when the account is unnamed.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if len(a.Address) > 8 {
		return a.Address[:8]
	}
	return a.Address
}

// DelegationTarget returns the baker pool the account delegates to, if any.
func (a Account) DelegationTarget() (BakerID, bool) {
	if a.Delegation == nil || a.Delegation.TargetBakerID == nil {
		return 0, false
	}
	return *a.Delegation.TargetBakerID, true
}

// CanOriginate reports whether transfers may be sent from the account.
func (a Account) CanOriginate() bool {
	return !a.ReadOnly && a.Submission.Status == submission.StatusFinalized
}

// Actions returns the actions available for the account in its current state.
func (a Account) Actions() submission.Actions {
	return submission.Eligibility(a.Submission.Status, a.ReadOnly)
}
