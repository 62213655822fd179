// Package store persists evaluation call logs in pebble, one key space
// per optimization run.
package store

import (
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// KVDB is the key-value surface the trace store runs on.
type KVDB interface {
	Get(key []byte) ([]byte, io.Closer, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	NewBatch() Transaction
	NewIter(lowerBound []byte, upperBound []byte) (Iterator, error)
	DeleteRange(start []byte, end []byte) error
	Close() error
}

// Iterator walks a key range in ascending order.
type Iterator interface {
	Key() []byte
	First() bool
	Next() bool
	Valid() bool
	Value() []byte
	Close() error
}

// Transaction batches writes that commit atomically.
type Transaction interface {
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	DeleteRange(start []byte, end []byte) error
	Commit() error
	Abort() error
}

type PebbleDB struct {
	db *pebble.DB
}

var _ KVDB = (*PebbleDB)(nil)

func NewPebbleDB(path string) (*PebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble db")
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Get(key []byte) ([]byte, io.Closer, error) {
	return p.db.Get(key)
}

func (p *PebbleDB) Set(key []byte, value []byte) error {
	return p.db.Set(key, value, &pebble.WriteOptions{Sync: true})
}

func (p *PebbleDB) Delete(key []byte) error {
	return p.db.Delete(key, &pebble.WriteOptions{Sync: true})
}

func (p *PebbleDB) NewBatch() Transaction {
	return &PebbleTransaction{
		b: p.db.NewBatch(),
	}
}

func (p *PebbleDB) NewIter(lowerBound []byte, upperBound []byte) (
	Iterator,
	error,
) {
	return p.db.NewIter(&pebble.IterOptions{
		LowerBound: lowerBound,
		UpperBound: upperBound,
	})
}

func (p *PebbleDB) DeleteRange(start []byte, end []byte) error {
	return p.db.DeleteRange(start, end, &pebble.WriteOptions{Sync: true})
}

func (p *PebbleDB) Close() error {
	return p.db.Close()
}

type PebbleTransaction struct {
	b *pebble.Batch
}

var _ Transaction = (*PebbleTransaction)(nil)

func (t *PebbleTransaction) Set(key []byte, value []byte) error {
	return t.b.Set(key, value, &pebble.WriteOptions{Sync: true})
}

func (t *PebbleTransaction) Delete(key []byte) error {
	return t.b.Delete(key, &pebble.WriteOptions{Sync: true})
}

func (t *PebbleTransaction) DeleteRange(start []byte, end []byte) error {
	return t.b.DeleteRange(start, end, &pebble.WriteOptions{Sync: true})
}

func (t *PebbleTransaction) Commit() error {
	return t.b.Commit(&pebble.WriteOptions{Sync: true})
}

func (t *PebbleTransaction) Abort() error {
	return t.b.Close()
}
