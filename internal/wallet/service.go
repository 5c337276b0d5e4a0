// Package wallet ties the account store, the submission tracker and the pool
// monitor together and publishes one view per account.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/feed"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/memo"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/store"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/transfer"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

// StatusSource reports the chain status of a submission.
type StatusSource interface {
	SubmissionStatus(ctx context.Context, reference string) (submission.Status, error)
}

// Submitter sends an account creation request to the chain and returns the
// reference used to follow it.
type Submitter interface {
	Submit(ctx context.Context, a account.Account) (reference string, err error)
}

// AccountView is what the UI shows for an account.
type AccountView struct {
	Account account.Account
	Status  submission.Status
	Actions submission.Actions
	// AtRisk is set when the account delegates to a pool that is closing.
	AtRisk bool
	// Removed is set on the last view published for a deleted account.
	Removed bool
}

type Config struct {
	Store     *store.Accounts
	Source    StatusSource
	Querier   pool.StatusQuerier
	Submitter Submitter
}

type Service struct {
	store     *store.Accounts
	source    StatusSource
	monitor   *pool.Monitor
	submitter Submitter
	tracker   *submission.Tracker

	mu       sync.RWMutex
	accounts map[string]account.Account
	records  map[uuid.UUID]string
	atRisk   map[string]bool

	views feed.Feed[AccountView]
}

func NewService(cfg Config) *Service {
	s := &Service{
		store:     cfg.Store,
		source:    cfg.Source,
		submitter: cfg.Submitter,
		tracker:   submission.NewTracker(),
		accounts:  make(map[string]account.Account),
		records:   make(map[uuid.UUID]string),
		atRisk:    make(map[string]bool),
	}
	if cfg.Querier != nil {
		s.monitor = pool.NewMonitor(cfg.Querier)
	}
	s.tracker.Subscribe(s.onUpdate)
	return s
}

// Load reads every stored account and starts tracking its submission.
func (s *Service) Load() error {
	accounts, err := s.store.All()
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	for _, a := range accounts {
		if err := s.track(a); err != nil {
			return err
		}
	}
	log.Wallet.Debug().Int("accounts", len(accounts)).Msg("accounts loaded")
	return nil
}

// Import stores accounts and starts tracking them. Existing accounts with the
// same address are replaced, and so is their tracked submission record.
// Nothing is stored when a submission id already belongs to another address.
func (s *Service) Import(accounts []account.Account) error {
	if err := s.checkOwners(accounts); err != nil {
		return err
	}
	if err := s.store.PutAll(accounts); err != nil {
		return fmt.Errorf("import accounts: %w", err)
	}
	for _, a := range accounts {
		if err := s.track(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkOwners(accounts []account.Account) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		owner, ok := owners[a.Submission.ID]
		if !ok {
			owner, ok = s.records[a.Submission.ID]
		}
		if ok && owner != a.Address {
			return fmt.Errorf("%w: %s is used by %s", ErrSubmissionInUse, a.Submission.ID, owner)
		}
		owners[a.Submission.ID] = a.Address
	}
	return nil
}

// track makes a.Submission the tracked record of a. A record previously
// tracked for the same address is dropped first, so the tracker stays the
// only source of the status.
func (s *Service) track(a account.Account) error {
	s.mu.Lock()
	if owner, ok := s.records[a.Submission.ID]; ok && owner != a.Address {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is used by %s", ErrSubmissionInUse, a.Submission.ID, owner)
	}
	old, replaced := s.accounts[a.Address]
	if replaced {
		delete(s.records, old.Submission.ID)
	}
	s.accounts[a.Address] = a
	s.records[a.Submission.ID] = a.Address
	s.mu.Unlock()

	if replaced {
		s.tracker.Untrack(old.Submission.ID)
	}
	return s.tracker.Track(a.Submission)
}

// Accounts returns every account in creation order.
func (s *Service) Accounts() []account.Account {
	records := s.tracker.Records()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]account.Account, 0, len(records))
	for _, r := range records {
		if address, ok := s.records[r.ID]; ok {
			out = append(out, s.accounts[address])
		}
	}
	return out
}

// View returns the current view of the account with the given address.
func (s *Service) View(address string) (AccountView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[address]
	if !ok {
		return AccountView{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	return s.viewLocked(a), nil
}

func (s *Service) viewLocked(a account.Account) AccountView {
	return AccountView{
		Account: a,
		Status:  a.Submission.Status,
		Actions: a.Actions(),
		AtRisk:  s.atRisk[a.Address],
	}
}

// Subscribe registers fn for account views published after this call.
func (s *Service) Subscribe(fn func(AccountView)) (unsubscribe func()) {
	return s.views.Subscribe(fn)
}

// Refresh asks the chain for the status of every pending submission that has
// a reference, applies the answers and republishes every account. Failed
// queries leave the record untouched.
func (s *Service) Refresh(ctx context.Context) error {
	if s.source == nil {
		s.tracker.Refresh()
		return nil
	}

	for _, r := range s.tracker.Records() {
		if !r.Status.IsPending() || r.Reference == "" {
			continue
		}
		status, err := s.source.SubmissionStatus(ctx, r.Reference)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Wallet.Debug().Err(err).Str("reference", r.Reference).Msg("submission status query failed")
			continue
		}
		if _, err := s.tracker.Apply(r.ID, status); err != nil {
			log.Wallet.Warn().Err(err).Str("reference", r.Reference).Msg("apply submission status")
		}
	}

	s.tracker.Refresh()
	return nil
}

// CheckDelegations flags accounts whose delegation pool is closing. It
// reports false when no account is affected or no querier is configured.
func (s *Service) CheckDelegations(ctx context.Context) (pool.Warning, bool) {
	if s.monitor == nil {
		return pool.Warning{}, false
	}
	found := s.monitor.AtRisk(ctx, s.Accounts())

	s.mu.Lock()
	s.atRisk = make(map[string]bool, len(found))
	for _, a := range found {
		s.atRisk[a.Address] = true
	}
	views := make([]AccountView, 0, len(s.accounts))
	for _, a := range s.accounts {
		views = append(views, s.viewLocked(a))
	}
	s.mu.Unlock()

	for _, v := range views {
		s.views.Send(v)
	}
	if len(found) == 0 {
		return pool.Warning{}, false
	}
	return pool.Warning{Accounts: found}, true
}

// RetryAccountCreation resubmits a failed account creation. The failed
// submission record is replaced by a new one carrying the new reference.
func (s *Service) RetryAccountCreation(ctx context.Context, address string) (account.Account, error) {
	if s.submitter == nil {
		return account.Account{}, ErrNoSubmitter
	}
	a, err := s.lookup(address)
	if err != nil {
		return account.Account{}, err
	}
	if a.Submission.Status != submission.StatusAbsent {
		return account.Account{}, fmt.Errorf("%w: %s is %s", ErrNotFailed, a.DisplayName(), a.Submission.Status)
	}

	reference, err := s.submitter.Submit(ctx, a)
	if err != nil {
		return account.Account{}, fmt.Errorf("resubmit %s: %w", a.DisplayName(), err)
	}
	next, err := s.tracker.Retry(a.Submission.ID)
	if err != nil {
		return account.Account{}, err
	}
	if _, err := s.tracker.SetReference(next.ID, reference); err != nil {
		return account.Account{}, err
	}
	return s.lookup(address)
}

// RemoveFailedAccount deletes an account whose creation failed.
func (s *Service) RemoveFailedAccount(address string) error {
	a, err := s.lookup(address)
	if err != nil {
		return err
	}
	if err := s.tracker.Remove(a.Submission.ID); err != nil {
		if errors.Is(err, submission.ErrNotAbsent) {
			return fmt.Errorf("%w: %v", ErrNotFailed, err)
		}
		return err
	}
	if err := s.store.Delete(address); err != nil && !errors.Is(err, store.ErrAccountNotFound) {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// NewTransfer starts a transfer from the account with the given address.
func (s *Service) NewTransfer(kind transfer.Kind, from, recipient string, amount uint64) (*transfer.Draft, error) {
	a, err := s.lookup(from)
	if err != nil {
		return nil, err
	}
	return transfer.NewDraft(kind, a, recipient, amount)
}

// AttachMemo attaches m to the draft, refusing memos that are too large.
func (s *Service) AttachMemo(d *transfer.Draft, m memo.Memo) error {
	return d.AttachMemo(m)
}

func (s *Service) lookup(address string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[address]
	if !ok {
		return account.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	return a, nil
}

// onUpdate keeps the accounts in step with the tracker. It runs on the
// goroutine that changed the tracker, after the tracker released its lock.
func (s *Service) onUpdate(u submission.Update) {
	id := u.Record.ID
	if u.Kind == submission.UpdateRetried {
		id = u.Previous
	}

	s.mu.Lock()
	address, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	a := s.accounts[address]

	if u.Kind == submission.UpdateRemoved {
		delete(s.records, id)
		delete(s.accounts, address)
		delete(s.atRisk, address)
		s.mu.Unlock()

		a.Submission = u.Record
		s.views.Send(AccountView{Account: a, Status: u.Record.Status, Actions: a.Actions(), Removed: true})
		return
	}

	if u.Kind == submission.UpdateRetried {
		delete(s.records, id)
		s.records[u.Record.ID] = address
	}
	a.Submission = u.Record
	s.accounts[address] = a
	view := s.viewLocked(a)
	s.mu.Unlock()

	switch u.Kind {
	case submission.UpdateStatus, submission.UpdateReference, submission.UpdateRetried:
		if err := s.store.Put(a); err != nil {
			log.Wallet.Error().Err(err).Str("account", a.DisplayName()).Msg("persist account")
		}
	case submission.UpdateTracked, submission.UpdateRefreshed, submission.UpdateRemoved:
	}
	s.views.Send(view)
}
