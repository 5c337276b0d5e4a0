package pebble

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db"
)

type Batch struct {
	batch *pebble.Batch
	done  atomic.Bool
}

func (p *KVStore) NewBatch() db.Batch {
	return &Batch{
		batch: p.db.NewBatch(),
	}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.batch.Delete(key, nil)
}

// Commit applies the batch. The batch is released afterwards; a later Close is a no-op.
func (b *Batch) Commit() error {
	if !b.done.CompareAndSwap(false, true) {
		return ErrBatchDone
	}
	defer b.batch.Close()
	return b.batch.Commit(pebble.Sync)
}

func (b *Batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}
