package transfer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/memo"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/testutils"
)

func sender(t *testing.T, readOnly bool) account.Account {
	t.Helper()
	r, err := submission.NewRecord("ref", readOnly).Apply(submission.StatusFinalized)
	require.NoError(t, err)
	return account.Account{Address: testutils.RandomAddress(t), ReadOnly: readOnly, Submission: r}
}

func TestNewDraft(t *testing.T) {
	from := sender(t, false)
	tests := []struct {
		name      string
		kind      Kind
		from      account.Account
		recipient string
		amount    uint64
		wantErr   error
	}{
		{name: "simple", kind: SimpleTransfer, from: from, recipient: "to", amount: 5},
		{name: "remove delegation needs no amount", kind: RemoveDelegation, from: from},
		{name: "unknown kind", kind: Kind(0), from: from, wantErr: ErrUnknownKind},
		{name: "read-only sender", kind: SimpleTransfer, from: sender(t, true), recipient: "to", amount: 5, wantErr: ErrAccountCannotSend},
		{name: "pending sender", kind: SimpleTransfer, from: account.Account{Submission: submission.NewRecord("ref", false)}, recipient: "to", amount: 5, wantErr: ErrAccountCannotSend},
		{name: "missing recipient", kind: EncryptedTransfer, from: from, amount: 5, wantErr: ErrMissingRecipient},
		{name: "zero amount", kind: TransferToSecret, from: from, wantErr: ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewDraft(tc.kind, tc.from, tc.recipient, tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, d.Kind())
			assert.NoError(t, d.Validate())
		})
	}
}

func TestAttachMemo(t *testing.T) {
	d, err := NewDraft(SimpleTransfer, sender(t, false), "to", 10)
	require.NoError(t, err)

	_, ok := d.Memo()
	assert.False(t, ok)

	require.NoError(t, d.AttachMemo(memo.New("rent")))
	m, ok := d.Memo()
	require.True(t, ok)
	assert.Equal(t, "rent", m.DisplayValue())

	// An oversized memo is refused and the previous one stays.
	err = d.AttachMemo(memo.New(strings.Repeat("a", 300)))
	require.ErrorIs(t, err, ErrMemoTooLarge)
	require.ErrorIs(t, err, memo.ErrTooLarge)
	m, _ = d.Memo()
	assert.Equal(t, "rent", m.DisplayValue())

	// Invalid UTF-8 could not be decoded from the chain again.
	err = d.AttachMemo(memo.New("a\xffb"))
	require.ErrorIs(t, err, ErrInvalidMemo)
	require.ErrorIs(t, err, memo.ErrInvalidText)
	m, _ = d.Memo()
	assert.Equal(t, "rent", m.DisplayValue())

	require.NoError(t, d.AttachMemo(memo.New(strings.Repeat("a", 254))))
	require.ErrorIs(t, d.AttachMemo(memo.New(strings.Repeat("a", 255))), ErrMemoTooLarge)

	d.ClearMemo()
	_, ok = d.Memo()
	assert.False(t, ok)
}

func TestAttachMemoUnsupportedKind(t *testing.T) {
	d, err := NewDraft(RegisterDelegation, sender(t, false), "", 1000)
	require.NoError(t, err)
	require.ErrorIs(t, d.AttachMemo(memo.New("hi")), ErrMemoNotSupported)
}
