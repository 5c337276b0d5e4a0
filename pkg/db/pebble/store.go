package pebble

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db"
)

var _ db.KVStore = (*KVStore)(nil)

// KVStore implements db.KVStore on top of a pebble database.
type KVStore struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
}

// NewKVStore opens (or creates) a pebble database in path.
func NewKVStore(path string) (*KVStore, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(16 * 1024 * 1024), // 16MB
		MemTableSize: 8 * 1024 * 1024,                   // 8MB
	}
	defer opts.Cache.Unref()

	return open(path, opts)
}

// NewMemoryKVStore opens a pebble database backed by an in-memory filesystem.
func NewMemoryKVStore() (*KVStore, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(path string, opts *pebble.Options) (*KVStore, error) {
	pdb, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
