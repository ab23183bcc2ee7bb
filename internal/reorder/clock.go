// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reorder

import "time"

// Clock schedules deferred calls. The sink only needs AfterFunc, which
// keeps a fake clock in tests trivial.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending deferred call.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already started or was already stopped.
	Stop() bool
}

// SystemClock schedules calls with time.AfterFunc.
type SystemClock struct{}

// AfterFunc implements Clock.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
