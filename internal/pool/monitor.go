package pool

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

// Warning lists the accounts whose delegation target is closing.
type Warning struct {
	Accounts []account.Account
}

// Message is the alert body: one display name per line.
func (w Warning) Message() string {
	names := make([]string, len(w.Accounts))
	for i, a := range w.Accounts {
		names[i] = a.DisplayName()
	}
	return strings.Join(names, "\n")
}

// Monitor checks delegation targets against the chain.
type Monitor struct {
	querier StatusQuerier
}

func NewMonitor(q StatusQuerier) *Monitor {
	return &Monitor{querier: q}
}

// AtRisk returns the accounts delegating to a pool with a pending RemovePool
// change, in input order. An address listed twice is reported once. Each distinct pool is
// queried once, concurrently. A failed query counts as no finding for the
// accounts of that pool; it never fails the whole check.
func (m *Monitor) AtRisk(ctx context.Context, accounts []account.Account) []account.Account {
	pools := make(map[account.BakerID]struct{})
	for _, a := range accounts {
		if id, ok := a.DelegationTarget(); ok {
			pools[id] = struct{}{}
		}
	}
	if len(pools) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		closing = make(map[account.BakerID]bool, len(pools))
	)
	g, gctx := errgroup.WithContext(ctx)
	for id := range pools {
		id := id
		g.Go(func() error {
			status, err := m.querier.PoolStatus(gctx, id)
			if err != nil {
				log.Wallet.Debug().Err(err).Stringer("pool", id).Msg("pool status query failed")
				return nil
			}
			if status.IsClosing() {
				mu.Lock()
				closing[id] = true
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()

	var (
		result []account.Account
		seen   = make(map[string]struct{})
	)
	for _, a := range accounts {
		id, ok := a.DelegationTarget()
		if !ok || !closing[id] {
			continue
		}
		// Accounts without an address cannot be told apart; each one counts.
		if a.Address != "" {
			if _, dup := seen[a.Address]; dup {
				continue
			}
			seen[a.Address] = struct{}{}
		}
		result = append(result, a)
	}
	return result
}

// Check is a running asynchronous pool check.
type Check struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	abandoned bool
}

// Start runs AtRisk in the background and calls deliver once with the
// findings, unless there are none or the check was abandoned first.
func (m *Monitor) Start(ctx context.Context, accounts []account.Account, deliver func(Warning)) *Check {
	ctx, cancel := context.WithCancel(ctx)
	c := &Check{cancel: cancel, done: make(chan struct{})}

	snapshot := make([]account.Account, len(accounts))
	copy(snapshot, accounts)

	go func() {
		defer close(c.done)
		defer cancel()

		found := m.AtRisk(ctx, snapshot)
		if len(found) == 0 {
			return
		}

		// Holding the lock across deliver makes Abandon wait for an
		// in-flight delivery.
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.abandoned {
			return
		}
		deliver(Warning{Accounts: found})
	}()
	return c
}

// Abandon stops the check. Once it returns deliver is not called anymore.
// deliver must not call Abandon.
func (c *Check) Abandon() {
	c.mu.Lock()
	c.abandoned = true
	c.mu.Unlock()
	c.cancel()
}

// Done is closed when the check finished, delivered or not.
func (c *Check) Done() <-chan struct{} {
	return c.done
}
