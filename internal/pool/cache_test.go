package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
)

func TestCachingQuerier(t *testing.T) {
	q := &mockQuerier{}
	q.On("PoolStatus", mock.Anything, account.BakerID(7)).Return(removal(7), nil).Twice()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewCachingQuerier(q, 8, time.Minute)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s, err := c.PoolStatus(ctx, 7)
		require.NoError(t, err)
		assert.True(t, s.IsClosing())
	}
	q.AssertNumberOfCalls(t, "PoolStatus", 1)

	now = now.Add(2 * time.Minute)
	_, err = c.PoolStatus(ctx, 7)
	require.NoError(t, err)
	q.AssertNumberOfCalls(t, "PoolStatus", 2)
	q.AssertExpectations(t)
}

func TestCachingQuerierDoesNotCacheErrors(t *testing.T) {
	q := &mockQuerier{}
	q.On("PoolStatus", mock.Anything, account.BakerID(1)).Return(Status{}, errors.New("unavailable")).Once()
	q.On("PoolStatus", mock.Anything, account.BakerID(1)).Return(removal(1), nil).Once()

	c, err := NewCachingQuerier(q, 8, time.Hour)
	require.NoError(t, err)

	_, err = c.PoolStatus(context.Background(), 1)
	require.Error(t, err)
	s, err := c.PoolStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, s.IsClosing())

	c.Purge()
	q.AssertExpectations(t)
}

func TestNewCachingQuerierRejectsSize(t *testing.T) {
	_, err := NewCachingQuerier(&mockQuerier{}, 0, time.Minute)
	require.ErrorIs(t, err, ErrInvalidCacheSize)
}
