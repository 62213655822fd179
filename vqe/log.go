package vqe

import (
	"slices"
	"time"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

// CallRecord captures one successful evaluation: which backend ran,
// the memory map it ran with, and what it returned. The memory map is
// a deep copy taken at record time, so later in-place parameter
// updates cannot rewrite recorded history.
type CallRecord struct {
	Backend string         `json:"backend"`
	Memory  quil.MemoryMap `json:"memory"`
	Shots   int            `json:"shots"`
	Result  Result         `json:"result"`
	Elapsed time.Duration  `json:"elapsed"`
	At      time.Time      `json:"at"`
}

// Tracer receives a record per successful evaluation. A Tracer error
// fails the call that produced the record.
type Tracer interface {
	Record(record CallRecord) error
}

// CallLog is an append-only in-memory Tracer. Like the engines that
// feed it, it is meant for a single sequential evaluation stream.
type CallLog struct {
	records []CallRecord
}

func (l *CallLog) Record(record CallRecord) error {
	l.records = append(l.records, record)
	return nil
}

// Records returns the recorded calls in call order.
func (l *CallLog) Records() []CallRecord {
	return slices.Clone(l.records)
}

func (l *CallLog) Len() int {
	return len(l.records)
}
