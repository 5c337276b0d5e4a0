package chainquery

import "errors"

var (
	ErrNotFound    = errors.New("chainquery: not found")
	ErrBadRequest  = errors.New("chainquery: bad request")
	ErrRemote      = errors.New("chainquery: remote error")
	ErrUnknownKind = errors.New("chainquery: unknown request kind")
	ErrClosed      = errors.New("chainquery: closed")
)
