// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idgen

import (
	"errors"
	"sync/atomic"
	"time"
)

const (
	// Epoch is the fixed zero point for all generated timestamps, in
	// milliseconds since the Unix epoch (2022-10-15T10:30:49.339Z).
	// Chosen once for the life of the system; changing it would make
	// previously issued IDs decode to the wrong instant.
	Epoch int64 = 1665829849339

	// SequenceBits is the number of low bits that disambiguate IDs
	// generated within the same millisecond.
	SequenceBits = 20

	// SequenceMask selects the sequence portion of an ID.
	SequenceMask uint64 = 1<<SequenceBits - 1

	// MaxPerMilli is the number of distinct IDs one Generator can
	// issue per millisecond before the sequence wraps and values
	// repeat.
	MaxPerMilli = 1 << SequenceBits
)

// ErrBeforeEpoch is returned when the wall clock reads earlier than
// Epoch. Encoding such a reading would produce a negative delta and
// corrupt the ordering and range invariants, so the call fails
// instead.
var ErrBeforeEpoch = errors.New("idgen: clock reads before epoch")

// Generator is the single generation authority for primary keys.
// The zero value is not usable; construct with New or NewWithClock.
type Generator struct {
	seq   atomic.Uint64
	clock Clock
}

// New returns a Generator backed by the system wall clock.
func New() *Generator {
	return NewWithClock(SystemClock{})
}

// NewWithClock returns a Generator that reads time from clock.
func NewWithClock(clock Clock) *Generator {
	return &Generator{clock: clock}
}

// NextID returns the next unique ID.
//
// The sequence increment and the clock read are the only state
// touched; the two readings from this invocation are always combined
// into the same ID. Failure means no ID was issued, so callers may
// simply retry.
func (g *Generator) NextID() (uint64, error) {
	// Add returns the post-increment value; the counter starts at
	// zero so the first ID carries sequence 0.
	seq := (g.seq.Add(1) - 1) & SequenceMask

	delta := g.clock.NowMilli() - Epoch
	if delta < 0 {
		return 0, ErrBeforeEpoch
	}

	return uint64(delta)<<SequenceBits | seq, nil
}

// Millis returns the wall-clock millisecond timestamp encoded in id.
func Millis(id uint64) int64 {
	return int64(id>>SequenceBits) + Epoch
}

// Seq returns the sequence portion of id.
func Seq(id uint64) uint64 {
	return id & SequenceMask
}

// Time returns the generation time encoded in id.
func Time(id uint64) time.Time {
	return time.UnixMilli(Millis(id)).UTC()
}
