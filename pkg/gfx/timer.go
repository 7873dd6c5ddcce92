package gfx

import "time"

// Timer measures elapsed time per key.
type Timer struct {
	now   func() time.Time
	marks map[string]time.Time
}

// NewTimer creates a timer on the wall clock.
func NewTimer() *Timer {
	return NewTimerWithClock(time.Now)
}

// NewTimerWithClock creates a timer reading time from now.
func NewTimerWithClock(now func() time.Time) *Timer {
	return &Timer{
		now:   now,
		marks: make(map[string]time.Time),
	}
}

// Reset returns the seconds elapsed since key was last reset and, unless
// accumulate is set, moves the key's mark to now. The first call for a key
// starts it and returns 0.
func (t *Timer) Reset(key string, accumulate bool) float32 {
	now := t.now()

	mark, ok := t.marks[key]
	if !ok {
		t.marks[key] = now
		return 0
	}

	if !accumulate {
		t.marks[key] = now
	}

	return float32(now.Sub(mark).Seconds())
}
