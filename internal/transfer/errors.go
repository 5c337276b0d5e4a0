package transfer

import "errors"

var (
	ErrUnknownKind       = errors.New("transfer: unknown kind")
	ErrMemoNotSupported  = errors.New("transfer: kind does not carry a memo")
	ErrMemoTooLarge      = errors.New("transfer: memo too large")
	ErrInvalidMemo       = errors.New("transfer: memo text is not valid UTF-8")
	ErrAccountCannotSend = errors.New("transfer: account cannot originate transactions")
	ErrInvalidAmount     = errors.New("transfer: amount must be positive")
	ErrMissingRecipient  = errors.New("transfer: recipient required")
)
