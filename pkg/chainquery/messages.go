// Package chainquery is the wallet's connection to a chain query node. A
// request travels on its own QUIC stream: one kind byte, then one framed CBOR
// request. The node answers with one framed CBOR response and closes the
// stream.
package chainquery

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/serialization"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/serialization/codec"
)

// ALPN identifies the query protocol during the TLS handshake.
const ALPN = "concordium-wallet-query/1"

// Kind selects the request carried by a stream.
type Kind byte

const (
	KindPoolStatus Kind = iota + 1
	KindSubmissionStatus
	KindAppSettings
)

func (k Kind) String() string {
	switch k {
	case KindPoolStatus:
		return "pool-status"
	case KindSubmissionStatus:
		return "submission-status"
	case KindAppSettings:
		return "app-settings"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Response codes.
const (
	CodeOK uint8 = iota
	CodeNotFound
	CodeBadRequest
	CodeInternal
)

var serializer = serialization.NewSerializer(codec.NewCBORCodec())

// Response wraps every answer. Payload is the CBOR encoded answer when Code
// is CodeOK and empty otherwise.
type Response struct {
	_       struct{} `cbor:",toarray"`
	Code    uint8
	Message string
	Payload cbor.RawMessage
}

type PoolStatusRequest struct {
	_       struct{} `cbor:",toarray"`
	BakerID uint64
}

// PoolStatusResponse carries the pending change of a pool. EffectiveTime is
// in Unix seconds, zero when the change has no effective time.
type PoolStatusResponse struct {
	_             struct{} `cbor:",toarray"`
	BakerID       uint64
	ChangeType    string
	EffectiveTime int64
}

type SubmissionStatusRequest struct {
	_         struct{} `cbor:",toarray"`
	Reference string
}

type SubmissionStatusResponse struct {
	_      struct{} `cbor:",toarray"`
	Status string
}

type AppSettingsRequest struct {
	_       struct{} `cbor:",toarray"`
	Version string
}

type AppSettingsResponse struct {
	_      struct{} `cbor:",toarray"`
	Status string
	URL    string
}

func poolStatusToWire(s pool.Status) PoolStatusResponse {
	resp := PoolStatusResponse{BakerID: uint64(s.BakerID), ChangeType: s.PendingChange.Type}
	if s.PendingChange.EffectiveTime != nil {
		resp.EffectiveTime = s.PendingChange.EffectiveTime.Unix()
	}
	return resp
}

func poolStatusFromWire(r PoolStatusResponse) pool.Status {
	s := pool.Status{
		BakerID:       account.BakerID(r.BakerID),
		PendingChange: account.PendingChange{Type: r.ChangeType},
	}
	if r.EffectiveTime != 0 {
		t := time.Unix(r.EffectiveTime, 0).UTC()
		s.PendingChange.EffectiveTime = &t
	}
	return s
}
