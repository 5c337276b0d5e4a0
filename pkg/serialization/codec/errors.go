package codec

import "errors"

var (
	ErrTrailingData = errors.New("codec: trailing data after first item")

	ErrCBOREncoding = "cbor encoding: %w"
	ErrCBORDecoding = "cbor decoding: %w"
)
