package submission

import "errors"

var (
	ErrUnknownStatus = errors.New("submission: unknown status")
	// ErrFinalized is returned for any attempt to move a finalized record.
	ErrFinalized = errors.New("submission: record is finalized")
	// ErrAbsent is returned when a status update targets a failed record.
	// Failed records are only left through Retry.
	ErrAbsent      = errors.New("submission: record is absent")
	ErrNotAbsent   = errors.New("submission: record has not failed")
	ErrNotTracked  = errors.New("submission: record not tracked")
	ErrDuplicateID = errors.New("submission: record already tracked")

	// ErrNotChainStatus is returned when a status update asks for StatusLocal.
	ErrNotChainStatus = errors.New("submission: local is not a chain status")
)
