package transfer

import (
	"errors"
	"fmt"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/memo"
)

// Draft is a transaction being composed. It holds everything the signer needs
// except keys.
type Draft struct {
	kind      Kind
	from      account.Account
	recipient string
	amount    uint64
	memo      *memo.Memo
}

// NewDraft starts a transaction of kind from the given account. Transfers
// between accounts need a recipient; kinds that move funds need a positive
// amount.
func NewDraft(kind Kind, from account.Account, recipient string, amount uint64) (*Draft, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	if !from.CanOriginate() {
		return nil, fmt.Errorf("%w: %s", ErrAccountCannotSend, from.DisplayName())
	}
	if needsRecipient(kind) && recipient == "" {
		return nil, ErrMissingRecipient
	}
	if needsAmount(kind) && amount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, kind)
	}
	return &Draft{kind: kind, from: from, recipient: recipient, amount: amount}, nil
}

// AttachMemo sets the memo of the draft, replacing any previous one. Memos
// that fail memo.Validate and kinds that cannot carry a memo are rejected and
// leave the draft unchanged.
func (d *Draft) AttachMemo(m memo.Memo) error {
	if !d.kind.SupportsMemo() {
		return fmt.Errorf("%w: %s", ErrMemoNotSupported, d.kind)
	}
	if err := m.Validate(); err != nil {
		return memoError(err)
	}
	d.memo = &m
	return nil
}

// ClearMemo removes the memo.
func (d *Draft) ClearMemo() {
	d.memo = nil
}

// Memo returns the attached memo.
func (d *Draft) Memo() (memo.Memo, bool) {
	if d.memo == nil {
		return memo.Memo{}, false
	}
	return *d.memo, true
}

func (d *Draft) Kind() Kind { return d.kind }
func (d *Draft) From() account.Account { return d.from }
func (d *Draft) Recipient() string { return d.recipient }
func (d *Draft) Amount() uint64 { return d.amount }

// Validate rechecks the draft just before it is handed to the signer.
func (d *Draft) Validate() error {
	if !d.from.CanOriginate() {
		return fmt.Errorf("%w: %s", ErrAccountCannotSend, d.from.DisplayName())
	}
	if d.memo != nil {
		if err := d.memo.Validate(); err != nil {
			return memoError(err)
		}
	}
	return nil
}

func needsRecipient(k Kind) bool {
	return k == SimpleTransfer || k == EncryptedTransfer
}

func needsAmount(k Kind) bool {
	switch k {
	case SimpleTransfer, EncryptedTransfer, TransferToSecret, TransferToPublic,
		RegisterDelegation, RegisterBaker:
		return true
	default:
		return false
	}
}

func memoError(err error) error {
	if errors.Is(err, memo.ErrInvalidText) {
		return fmt.Errorf("%w: %w", ErrInvalidMemo, err)
	}
	return fmt.Errorf("%w: %w", ErrMemoTooLarge, err)
}
