package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/memo"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/store"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/testutils"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/transfer"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) SubmissionStatus(ctx context.Context, reference string) (submission.Status, error) {
	args := m.MethodCalled("SubmissionStatus", ctx, reference)
	return args.Get(0).(submission.Status), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, a account.Account) (string, error) {
	args := m.MethodCalled("Submit", ctx, a.Address)
	return args.String(0), args.Error(1)
}

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) PoolStatus(ctx context.Context, id account.BakerID) (pool.Status, error) {
	args := m.MethodCalled("PoolStatus", ctx, id)
	return args.Get(0).(pool.Status), args.Error(1)
}

func newAccount(t *testing.T, name, reference string, status submission.Status) account.Account {
	t.Helper()
	r := submission.NewRecord(reference, false)
	if status != submission.StatusLocal {
		var err error
		r, err = r.Apply(status)
		require.NoError(t, err)
	}
	return account.Account{Address: testutils.RandomAddress(t), Name: name, Submission: r}
}

func newService(t *testing.T, cfg Config, accounts ...account.Account) *Service {
	t.Helper()
	st := store.NewAccounts(testutils.NewMemoryKVStore(t))
	require.NoError(t, st.PutAll(accounts))
	cfg.Store = st

	s := NewService(cfg)
	require.NoError(t, s.Load())
	return s
}

func TestLoadAndView(t *testing.T) {
	pending := newAccount(t, "pending", "ref-1", submission.StatusReceived)
	ready := newAccount(t, "ready", "ref-2", submission.StatusFinalized)
	s := newService(t, Config{}, pending, ready)

	assert.Len(t, s.Accounts(), 2)

	v, err := s.View(pending.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusReceived, v.Status)
	assert.Equal(t, submission.MessagePending, v.Actions.Message)

	v, err = s.View(ready.Address)
	require.NoError(t, err)
	assert.True(t, v.Actions.Send)
	assert.False(t, v.AtRisk)

	_, err = s.View("nobody")
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestRefresh(t *testing.T) {
	committed := newAccount(t, "committed", "ref-1", submission.StatusCommitted)
	failing := newAccount(t, "failing", "ref-2", submission.StatusReceived)
	unsent := newAccount(t, "unsent", "", submission.StatusLocal)
	done := newAccount(t, "done", "ref-3", submission.StatusFinalized)

	src := &mockSource{}
	src.On("SubmissionStatus", mock.Anything, "ref-1").Return(submission.StatusFinalized, nil)
	src.On("SubmissionStatus", mock.Anything, "ref-2").Return(submission.Status(0), errors.New("timeout"))

	s := newService(t, Config{Source: src}, committed, failing, unsent, done)

	var views []AccountView
	s.Subscribe(func(v AccountView) { views = append(views, v) })

	require.NoError(t, s.Refresh(context.Background()))
	src.AssertExpectations(t)
	src.AssertNumberOfCalls(t, "SubmissionStatus", 2)

	v, err := s.View(committed.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusFinalized, v.Status)
	assert.True(t, v.Actions.Send)

	v, err = s.View(failing.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusReceived, v.Status)

	// One status update plus one republish per account.
	assert.Len(t, views, 5)

	stored, err := s.store.Get(committed.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusFinalized, stored.Submission.Status)
}

func TestRefreshDoesNotReviveAbsent(t *testing.T) {
	failed := newAccount(t, "failed", "ref-1", submission.StatusAbsent)
	src := &mockSource{}
	s := newService(t, Config{Source: src}, failed)

	require.NoError(t, s.Refresh(context.Background()))
	src.AssertNotCalled(t, "SubmissionStatus", mock.Anything, mock.Anything)

	v, err := s.View(failed.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.Actions{RetryRemove: true, Message: submission.MessageFailed}, v.Actions)
}

func TestRetryAccountCreation(t *testing.T) {
	failed := newAccount(t, "failed", "ref-1", submission.StatusAbsent)
	ok := newAccount(t, "ok", "ref-2", submission.StatusFinalized)

	sub := &mockSubmitter{}
	sub.On("Submit", mock.Anything, failed.Address).Return("ref-9", nil).Once()
	s := newService(t, Config{Submitter: sub}, failed, ok)

	retried, err := s.RetryAccountCreation(context.Background(), failed.Address)
	require.NoError(t, err)
	assert.NotEqual(t, failed.Submission.ID, retried.Submission.ID)
	assert.Equal(t, submission.StatusLocal, retried.Submission.Status)
	assert.Equal(t, "ref-9", retried.Submission.Reference)

	stored, err := s.store.Get(failed.Address)
	require.NoError(t, err)
	assert.Equal(t, retried.Submission.ID, stored.Submission.ID)
	assert.Equal(t, "ref-9", stored.Submission.Reference)

	_, err = s.RetryAccountCreation(context.Background(), ok.Address)
	require.ErrorIs(t, err, ErrNotFailed)
	sub.AssertExpectations(t)
}

func TestRetryWithoutSubmitter(t *testing.T) {
	failed := newAccount(t, "failed", "ref-1", submission.StatusAbsent)
	s := newService(t, Config{}, failed)
	_, err := s.RetryAccountCreation(context.Background(), failed.Address)
	require.ErrorIs(t, err, ErrNoSubmitter)
}

func TestRetrySubmitFailureKeepsRecord(t *testing.T) {
	failed := newAccount(t, "failed", "ref-1", submission.StatusAbsent)
	sub := &mockSubmitter{}
	sub.On("Submit", mock.Anything, failed.Address).Return("", errors.New("rejected"))
	s := newService(t, Config{Submitter: sub}, failed)

	_, err := s.RetryAccountCreation(context.Background(), failed.Address)
	require.Error(t, err)

	v, err := s.View(failed.Address)
	require.NoError(t, err)
	assert.Equal(t, failed.Submission.ID, v.Account.Submission.ID)
	assert.Equal(t, submission.StatusAbsent, v.Status)
}

func TestRemoveFailedAccount(t *testing.T) {
	failed := newAccount(t, "failed", "ref-1", submission.StatusAbsent)
	ok := newAccount(t, "ok", "ref-2", submission.StatusFinalized)
	s := newService(t, Config{}, failed, ok)

	var views []AccountView
	s.Subscribe(func(v AccountView) { views = append(views, v) })

	require.ErrorIs(t, s.RemoveFailedAccount(ok.Address), ErrNotFailed)
	assert.Empty(t, views)
	require.NoError(t, s.RemoveFailedAccount(failed.Address))

	require.Len(t, views, 1)
	assert.True(t, views[0].Removed)
	assert.Equal(t, failed.Address, views[0].Account.Address)
	assert.Equal(t, submission.StatusAbsent, views[0].Status)

	_, err := s.View(failed.Address)
	require.ErrorIs(t, err, ErrUnknownAccount)
	_, err = s.store.Get(failed.Address)
	require.ErrorIs(t, err, store.ErrAccountNotFound)
	assert.Len(t, s.Accounts(), 1)
	require.ErrorIs(t, s.RemoveFailedAccount(failed.Address), ErrUnknownAccount)
}

func TestCheckDelegations(t *testing.T) {
	seven, nine := account.BakerID(7), account.BakerID(9)
	a := newAccount(t, "A", "r1", submission.StatusFinalized)
	a.Delegation = &account.Delegation{TargetBakerID: &seven}
	b := newAccount(t, "B", "r2", submission.StatusFinalized)
	b.Delegation = &account.Delegation{TargetBakerID: &nine}
	c := newAccount(t, "C", "r3", submission.StatusFinalized)

	q := &mockQuerier{}
	q.On("PoolStatus", mock.Anything, seven).
		Return(pool.Status{BakerID: 7, PendingChange: account.PendingChange{Type: account.RemovePool}}, nil)
	q.On("PoolStatus", mock.Anything, nine).
		Return(pool.Status{BakerID: 9, PendingChange: account.PendingChange{Type: account.NoChange}}, nil)

	s := newService(t, Config{Querier: q}, a, b, c)

	var atRisk []string
	s.Subscribe(func(v AccountView) {
		if v.AtRisk {
			atRisk = append(atRisk, v.Account.Name)
		}
	})

	w, found := s.CheckDelegations(context.Background())
	require.True(t, found)
	assert.Equal(t, "A", w.Message())
	assert.Equal(t, []string{"A"}, atRisk)

	v, err := s.View(a.Address)
	require.NoError(t, err)
	assert.True(t, v.AtRisk)
	v, err = s.View(c.Address)
	require.NoError(t, err)
	assert.False(t, v.AtRisk)
	q.AssertNumberOfCalls(t, "PoolStatus", 2)
}

func TestCheckDelegationsWithoutQuerier(t *testing.T) {
	s := newService(t, Config{})
	_, found := s.CheckDelegations(context.Background())
	assert.False(t, found)
}

func TestTransferWithMemo(t *testing.T) {
	from := newAccount(t, "from", "r1", submission.StatusFinalized)
	pending := newAccount(t, "pending", "r2", submission.StatusCommitted)
	s := newService(t, Config{}, from, pending)

	d, err := s.NewTransfer(transfer.SimpleTransfer, from.Address, "recipient", 100)
	require.NoError(t, err)
	require.NoError(t, s.AttachMemo(d, memo.New("thanks")))
	require.ErrorIs(t, s.AttachMemo(d, memo.New(strings.Repeat("x", 300))), transfer.ErrMemoTooLarge)

	m, ok := d.Memo()
	require.True(t, ok)
	assert.Equal(t, "thanks", m.DisplayValue())

	_, err = s.NewTransfer(transfer.SimpleTransfer, pending.Address, "recipient", 100)
	require.ErrorIs(t, err, transfer.ErrAccountCannotSend)
	_, err = s.NewTransfer(transfer.SimpleTransfer, "ghost", "recipient", 100)
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestImport(t *testing.T) {
	s := newService(t, Config{})
	a := newAccount(t, "imported", "r1", submission.StatusFinalized)
	a.Submission.CreatedAt = time.Now().Add(-time.Hour)

	require.NoError(t, s.Import([]account.Account{a}))
	require.Len(t, s.Accounts(), 1)

	all, err := s.store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "imported", all[0].Name)
}

func TestImportReplacesTrackedRecord(t *testing.T) {
	pending := newAccount(t, "pending", "r1", submission.StatusReceived)
	s := newService(t, Config{}, pending)

	again := pending
	again.Name = "renamed"
	again.Submission.Status = submission.StatusFinalized
	require.NoError(t, s.Import([]account.Account{again}))

	v, err := s.View(pending.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusFinalized, v.Status)
	assert.Equal(t, "renamed", v.Account.Name)
	tracked, ok := s.tracker.Get(pending.Submission.ID)
	require.True(t, ok)
	assert.Equal(t, submission.StatusFinalized, tracked.Status)

	// A new submission id replaces the old record instead of adding one.
	fresh := again
	fresh.Submission = submission.NewRecord("r2", false)
	require.NoError(t, s.Import([]account.Account{fresh}))

	_, ok = s.tracker.Get(pending.Submission.ID)
	assert.False(t, ok)
	require.Len(t, s.tracker.Records(), 1)
	assert.Equal(t, fresh.Submission.ID, s.tracker.Records()[0].ID)

	v, err = s.View(pending.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusLocal, v.Status)
	assert.Len(t, s.Accounts(), 1)
}

func TestImportRejectsSubmissionOfAnotherAccount(t *testing.T) {
	owner := newAccount(t, "owner", "r1", submission.StatusReceived)
	s := newService(t, Config{}, owner)

	intruder := newAccount(t, "intruder", "r2", submission.StatusFinalized)
	intruder.Submission.ID = owner.Submission.ID
	require.ErrorIs(t, s.Import([]account.Account{intruder}), ErrSubmissionInUse)

	_, err := s.store.Get(intruder.Address)
	require.ErrorIs(t, err, store.ErrAccountNotFound)
	v, err := s.View(owner.Address)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusReceived, v.Status)
}
