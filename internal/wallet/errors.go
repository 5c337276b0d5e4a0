package wallet

import "errors"

var (
	ErrUnknownAccount = errors.New("wallet: unknown account")
	ErrNotFailed      = errors.New("wallet: account creation has not failed")
	ErrNoSubmitter    = errors.New("wallet: no submitter configured")
	// ErrSubmissionInUse is returned when an imported account carries the
	// submission id of another account.
	ErrSubmissionInUse = errors.New("wallet: submission id belongs to another account")
)
