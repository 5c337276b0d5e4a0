package store

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/crypto"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db/pebble"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/serialization"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/serialization/codec"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrMissingAddress  = errors.New("account has no address")
	ErrAccountsClosed  = errors.New("account store is closed")
)

// Accounts persists wallet accounts keyed by the hash of their address.
type Accounts struct {
	db         db.KVStore
	serializer *serialization.Serializer
	closed     atomic.Bool
}

// NewAccounts creates an account store on top of db.
func NewAccounts(db db.KVStore) *Accounts {
	return &Accounts{
		db:         db,
		serializer: serialization.NewSerializer(&codec.JSONCodec{}),
	}
}

func accountKey(address string) []byte {
	h := crypto.HashData([]byte(address))
	return makeKey(prefixAccount, h[:])
}

// Put stores a, replacing any account with the same address.
func (s *Accounts) Put(a account.Account) error {
	if s.closed.Load() {
		return ErrAccountsClosed
	}
	if a.Address == "" {
		return ErrMissingAddress
	}

	value, err := s.serializer.Encode(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := s.db.Put(accountKey(a.Address), value); err != nil {
		return fmt.Errorf("store account: %w", err)
	}
	return nil
}

// PutAll stores every account atomically.
func (s *Accounts) PutAll(accounts []account.Account) error {
	if s.closed.Load() {
		return ErrAccountsClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, a := range accounts {
		if a.Address == "" {
			return ErrMissingAddress
		}
		value, err := s.serializer.Encode(a)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", a.Address, err)
		}
		if err := batch.Put(accountKey(a.Address), value); err != nil {
			return fmt.Errorf("store account %s: %w", a.Address, err)
		}
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf(ErrFailedBatchCommit, err)
	}
	return nil
}

// Get retrieves the account with the given address.
func (s *Accounts) Get(address string) (account.Account, error) {
	if s.closed.Load() {
		return account.Account{}, ErrAccountsClosed
	}

	value, err := s.db.Get(accountKey(address))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return account.Account{}, ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}

	var a account.Account
	if err := s.serializer.Decode(value, &a); err != nil {
		return account.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return a, nil
}

// All returns every stored account ordered by creation time of their
// submission. Entries that fail to decode are logged and skipped.
func (s *Accounts) All() ([]account.Account, error) {
	if s.closed.Load() {
		return nil, ErrAccountsClosed
	}

	iter, err := s.db.NewIterator([]byte{prefixAccount}, []byte{prefixAccount + 1})
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	var accounts []account.Account
	for iter.Next() {
		value, err := iter.Value()
		if err != nil {
			log.Store.Warn().Err(err).Msg("read account value from iterator")
			continue
		}
		var a account.Account
		if err := s.serializer.Decode(value, &a); err != nil {
			log.Store.Warn().Err(err).Hex("key", iter.Key()).Msg("decode account")
			continue
		}
		accounts = append(accounts, a)
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		ci, cj := accounts[i].Submission.CreatedAt, accounts[j].Submission.CreatedAt
		if ci.Equal(cj) {
			return accounts[i].Address < accounts[j].Address
		}
		return ci.Before(cj)
	})
	return accounts, nil
}

// Delete removes the account with the given address.
func (s *Accounts) Delete(address string) error {
	if s.closed.Load() {
		return ErrAccountsClosed
	}
	if _, err := s.db.Get(accountKey(address)); err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("get account: %w", err)
	}
	if err := s.db.Delete(accountKey(address)); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Close closes the store and the underlying database.
func (s *Accounts) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
