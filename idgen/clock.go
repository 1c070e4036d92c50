// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idgen

import "time"

// Clock supplies millisecond wall-clock readings to a Generator.
// Injecting it lets tests drive the generator through exact
// timestamps, regressions, and the capacity ceiling deterministically.
type Clock interface {
	NowMilli() int64
}

// SystemClock reads the operating system wall clock.
type SystemClock struct{}

func (SystemClock) NowMilli() int64 { return time.Now().UnixMilli() }

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() int64

func (f ClockFunc) NowMilli() int64 { return f() }
