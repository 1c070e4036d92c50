// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package idgen issues the primary keys for every entity in the system.

IDs are unsigned 64-bit integers that sort roughly by creation time:

	id = (now_ms - Epoch) << 20 | (sequence mod 2^20)

The high 44 bits hold milliseconds elapsed since Epoch (room for roughly
550 years), the low 20 bits hold a per-process sequence counter that
disambiguates IDs created within the same millisecond.

# Usage

Construct one Generator at startup and share it:

	gen := idgen.New()
	id, err := gen.NextID()

NextID is safe for concurrent use. Each call costs one atomic increment
and one clock read; it never blocks.

# Capacity

A single Generator can issue up to MaxPerMilli (1,048,576) distinct IDs
per millisecond. Sustained throughput at or above that rate wraps the
sequence within the millisecond and repeats IDs. This is the documented
capacity bound of the format, not a recoverable error; size deployments
accordingly.

# Clock behavior

If the wall clock reads earlier than Epoch, NextID fails with
ErrBeforeEpoch rather than encode a negative delta.

If the wall clock steps backward during operation (NTP correction, VM
migration), NextID tolerates it: the regressed reading is encoded as-is
and later IDs may sort below earlier ones until the clock catches up.
The ordering guarantee therefore holds only under a non-decreasing
clock. Collisions from a regression additionally require the sequence
counter to revisit the same low 20 bits within the replayed
millisecond.

# Single authority

The format carries no machine or process discriminator. Uniqueness
holds only while exactly one Generator is issuing IDs system-wide.
Running several uncoordinated instances against the same database
breaks global uniqueness; that deployment shape requires carving
node-id bits out of the sequence space, which is a format change, not a
configuration option.
*/
package idgen
