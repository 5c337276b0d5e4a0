package chainquery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/appsettings"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
)

// Backend answers the queries a Server receives. Client implements it as
// well, so a server can proxy another node.
type Backend interface {
	PoolStatus(ctx context.Context, id account.BakerID) (pool.Status, error)
	SubmissionStatus(ctx context.Context, reference string) (submission.Status, error)
	AppSettings(ctx context.Context, version string) (appsettings.Response, error)
}

// Fixture is the on-disk form of a FixtureBackend.
type Fixture struct {
	Pools       map[account.BakerID]pool.Status `json:"pools"`
	Submissions map[string]submission.Status    `json:"submissions"`
	AppSettings *appsettings.Response           `json:"appSettings,omitempty"`
}

// FixtureBackend serves fixed answers. Unknown pools and references yield
// ErrNotFound; without app settings every version is reported as up to date.
type FixtureBackend struct {
	mu      sync.RWMutex
	fixture Fixture
}

var _ Backend = (*FixtureBackend)(nil)

func NewFixtureBackend(f Fixture) *FixtureBackend {
	if f.Pools == nil {
		f.Pools = make(map[account.BakerID]pool.Status)
	}
	if f.Submissions == nil {
		f.Submissions = make(map[string]submission.Status)
	}
	return &FixtureBackend{fixture: f}
}

// LoadFixtureBackend reads a JSON fixture file.
func LoadFixtureBackend(path string) (*FixtureBackend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return NewFixtureBackend(f), nil
}

func (b *FixtureBackend) PoolStatus(_ context.Context, id account.BakerID) (pool.Status, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.fixture.Pools[id]
	if !ok {
		return pool.Status{}, fmt.Errorf("%w: pool %s", ErrNotFound, id)
	}
	s.BakerID = id
	return s, nil
}

func (b *FixtureBackend) SubmissionStatus(_ context.Context, reference string) (submission.Status, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.fixture.Submissions[reference]
	if !ok {
		return 0, fmt.Errorf("%w: submission %s", ErrNotFound, reference)
	}
	return s, nil
}

func (b *FixtureBackend) AppSettings(_ context.Context, _ string) (appsettings.Response, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.fixture.AppSettings == nil {
		return appsettings.Response{Status: appsettings.StatusOK}, nil
	}
	return *b.fixture.AppSettings, nil
}

func (b *FixtureBackend) SetPool(s pool.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixture.Pools[s.BakerID] = s
}

func (b *FixtureBackend) SetSubmission(reference string, s submission.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixture.Submissions[reference] = s
}
