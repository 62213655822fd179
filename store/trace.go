package store

import (
	"encoding/binary"
	"encoding/json"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidData = errors.New("invalid data")
)

//
// DB Keys
//
// Keys are structured as:
// <core type><run id>[<record sequence>]
// The record sequence is full width so that lexicographic key order is
// append order.
//

const (
	TRACE_RUN    = 0x01
	TRACE_RECORD = 0x02
)

func runKey(id uuid.UUID) []byte {
	key := []byte{TRACE_RUN}
	key = append(key, id[:]...)
	return key
}

func recordKey(id uuid.UUID, seq uint64) []byte {
	key := []byte{TRACE_RECORD}
	key = append(key, id[:]...)
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	key = append(key, seqBytes...)
	return key
}

// prefixEnd returns the smallest key greater than every key that starts
// with prefix, for use as an exclusive iteration bound.
func prefixEnd(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// RunInfo describes one recorded run.
type RunInfo struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
}

// TraceStore persists evaluation call logs. Every run gets its own id
// and an append-only record sequence under it.
type TraceStore struct {
	db     KVDB
	logger *zap.Logger
}

func NewTraceStore(db KVDB, logger *zap.Logger) *TraceStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraceStore{
		db,
		logger,
	}
}

// BeginRun allocates a run id, persists its metadata and returns the
// tracer that appends records under the run. The tracer is valid for
// the life of the process that began the run.
func (s *TraceStore) BeginRun(label string) (*RunTrace, error) {
	info := RunInfo{
		ID:        uuid.New(),
		Label:     label,
		StartedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, errors.Wrap(err, "begin run")
	}
	if err := s.db.Set(runKey(info.ID), data); err != nil {
		return nil, errors.Wrap(err, "begin run")
	}
	s.logger.Debug(
		"began trace run",
		zap.String("run", info.ID.String()),
		zap.String("label", label),
	)
	return &RunTrace{store: s, id: info.ID}, nil
}

// Run returns the metadata of one run.
func (s *TraceStore) Run(id uuid.UUID) (*RunInfo, error) {
	data, closer, err := s.db.Get(runKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, errors.Wrap(err, "run")
	}
	copied := slices.Clone(data)
	closer.Close()

	info := &RunInfo{}
	if err := json.Unmarshal(copied, info); err != nil {
		return nil, errors.Wrap(
			errors.Wrap(err, ErrInvalidData.Error()),
			"run",
		)
	}
	return info, nil
}

// Runs lists all recorded runs in id order.
func (s *TraceStore) Runs() ([]*RunInfo, error) {
	prefix := []byte{TRACE_RUN}
	iter, err := s.db.NewIter(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, errors.Wrap(err, "runs")
	}
	defer iter.Close()

	var runs []*RunInfo
	for iter.First(); iter.Valid(); iter.Next() {
		val := slices.Clone(iter.Value())
		info := &RunInfo{}
		if err := json.Unmarshal(val, info); err != nil {
			return nil, errors.Wrap(
				errors.Wrap(err, ErrInvalidData.Error()),
				"runs",
			)
		}
		runs = append(runs, info)
	}
	return runs, nil
}

// Records returns the call records of a run in append order.
func (s *TraceStore) Records(id uuid.UUID) ([]vqe.CallRecord, error) {
	if _, err := s.Run(id); err != nil {
		return nil, err
	}

	prefix := append([]byte{TRACE_RECORD}, id[:]...)
	iter, err := s.db.NewIter(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, errors.Wrap(err, "records")
	}
	defer iter.Close()

	var records []vqe.CallRecord
	for iter.First(); iter.Valid(); iter.Next() {
		val := slices.Clone(iter.Value())
		record := vqe.CallRecord{}
		if err := json.Unmarshal(val, &record); err != nil {
			return nil, errors.Wrap(
				errors.Wrap(err, ErrInvalidData.Error()),
				"records",
			)
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteRun removes a run and all its records atomically.
func (s *TraceStore) DeleteRun(id uuid.UUID) error {
	if _, err := s.Run(id); err != nil {
		return err
	}

	prefix := append([]byte{TRACE_RECORD}, id[:]...)
	txn := s.db.NewBatch()
	if err := txn.Delete(runKey(id)); err != nil {
		txn.Abort()
		return errors.Wrap(err, "delete run")
	}
	if err := txn.DeleteRange(prefix, prefixEnd(prefix)); err != nil {
		txn.Abort()
		return errors.Wrap(err, "delete run")
	}
	return errors.Wrap(txn.Commit(), "delete run")
}

// RunTrace appends the records of one run. It is safe for concurrent
// Record calls from sweep workers sharing a run.
type RunTrace struct {
	store *TraceStore
	id    uuid.UUID
	seq   atomic.Uint64
}

var _ vqe.Tracer = (*RunTrace)(nil)

// ID is the run this tracer appends under.
func (t *RunTrace) ID() uuid.UUID {
	return t.id
}

func (t *RunTrace) Record(record vqe.CallRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "record")
	}
	seq := t.seq.Add(1) - 1
	if err := t.store.db.Set(recordKey(t.id, seq), data); err != nil {
		return errors.Wrap(err, "record")
	}
	return nil
}
