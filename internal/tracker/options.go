package tracker

import (
	"time"

	"github.com/actionsum/ctvtcntr/internal/normalize"
)

const (
	DefaultInterval     = 500 * time.Millisecond
	DefaultWriteTimeout = 5 * time.Second
	DefaultRetryDelay   = 5 * time.Second
)

type Option func(*Tracker)

// WithClock replaces time.Now. Tests use it to drive elapsed time.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithWriteTimeout bounds every storage call.
func WithWriteTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.writeTimeout = d
		}
	}
}

// WithRetryDelay sets how long to wait before retrying failed writes while
// focus stays on the same window.
func WithRetryDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.retryDelay = d
		}
	}
}

// WithSplitAtMidnight credits an interval that crosses local midnight to
// each day it covers instead of to the day the switch was seen.
func WithSplitAtMidnight(split bool) Option {
	return func(t *Tracker) { t.splitAtMidnight = split }
}

// WithInitialTitle normalizes the title a window was created with rather
// than its current title.
func WithInitialTitle(use bool) Option {
	return func(t *Tracker) { t.useInitialTitle = use }
}

func WithNormalizer(n *normalize.Normalizer) Option {
	return func(t *Tracker) {
		if n != nil {
			t.normalizer = n
		}
	}
}

// WithRunID tags log lines and error log rows of this run.
func WithRunID(id string) Option {
	return func(t *Tracker) {
		if id != "" {
			t.runID = id
		}
	}
}
