// Package tracker polls the focused window and turns focus switches into
// per-day usage totals.
//
// A Tracker is either idle or tracking one (date, identity) key since a
// given instant. Elapsed time is always now minus that instant, computed at
// the switch, and credited to the ledger and to a set of pending writes that
// is flushed through the storage adapter.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/internal/storage"
	"github.com/actionsum/ctvtcntr/pkg/window"

	"github.com/google/uuid"
)

var ErrAlreadyRunning = errors.New("tracker is already running")

// State is a copy of the tracker's current position.
type State struct {
	Tracking bool               `json:"tracking"`
	Date     ledger.Date        `json:"date,omitempty"`
	Identity normalize.Identity `json:"identity,omitempty"`
	Since    time.Time          `json:"since,omitempty"`

	// Last raw window seen, for status output.
	Title string `json:"title,omitempty"`
	Class string `json:"class,omitempty"`

	Pending int    `json:"pending_writes"`
	RunID   string `json:"run_id"`
}

// Elapsed returns how long the current key has been accruing at now.
func (s State) Elapsed(now time.Time) time.Duration {
	if !s.Tracking || now.Before(s.Since) {
		return 0
	}
	return now.Sub(s.Since)
}

type Tracker struct {
	provider   window.Provider
	store      storage.Adapter
	ledger     *ledger.Ledger
	logger     *slog.Logger
	normalizer *normalize.Normalizer

	now             func() time.Time
	interval        time.Duration
	writeTimeout    time.Duration
	retryDelay      time.Duration
	splitAtMidnight bool
	useInitialTitle bool
	runID           string

	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}

	// mu guards state for readers on other goroutines. Only the loop writes.
	mu    sync.RWMutex
	state State

	// ledgerMu guards the ledger against Snapshot readers.
	ledgerMu sync.Mutex

	// pending holds deltas with at least a whole second to write. carry
	// holds sub-second remainders, folded back in on the key's next accrual
	// or on the final flush.
	pending    map[ledger.Key]time.Duration
	carry      map[ledger.Key]time.Duration
	retryAfter time.Time
	fatal      error
}

// New returns an idle tracker. The ledger is owned by the tracker from here
// on; other goroutines read it through Snapshot.
func New(provider window.Provider, store storage.Adapter, l *ledger.Ledger, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		provider:     provider,
		store:        store,
		ledger:       l,
		normalizer:   normalize.New(),
		now:          time.Now,
		interval:     DefaultInterval,
		writeTimeout: DefaultWriteTimeout,
		retryDelay:   DefaultRetryDelay,
		runID:        uuid.NewString(),
		stopCh:       make(chan struct{}),
		pending:      make(map[ledger.Key]time.Duration),
		carry:        make(map[ledger.Key]time.Duration),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.ledger == nil {
		t.ledger = ledger.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	t.logger = logger.With("run_id", t.runID)
	t.state.RunID = t.runID
	return t
}

// RunID identifies this tracker instance.
func (t *Tracker) RunID() string {
	return t.runID
}

// Load seeds the ledger from storage. An empty store is not an error.
func (t *Tracker) Load(ctx context.Context) error {
	records, err := t.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load usage: %w", err)
	}
	t.ledgerMu.Lock()
	t.ledger.Seed(records)
	t.ledgerMu.Unlock()
	t.logger.Info("loaded usage", "records", len(records))
	return nil
}

// State returns a copy of the current state. Safe for concurrent use.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Snapshot returns the in-memory totals, seeded records included, ordered by
// date then identity. It counts committed time that has not reached storage
// yet. Safe for concurrent use.
func (t *Tracker) Snapshot() []ledger.Record {
	t.ledgerMu.Lock()
	defer t.ledgerMu.Unlock()
	return t.ledger.Snapshot()
}

// Stop asks Run to finish after the current cycle. Safe to call more than
// once and from any goroutine.
func (t *Tracker) Stop() {
	t.stopped.Store(true)
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// Run polls until ctx is done or Stop is called, then commits the interval
// in progress and flushes everything pending. It returns a fatal storage
// error if one stopped the loop, otherwise the final flush error, if any.
func (t *Tracker) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer t.running.Store(false)

	t.logger.Info("tracker started", "provider", t.provider.Name(), "interval", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for !t.stopped.Load() && ctx.Err() == nil {
		t.Poll(ctx)
		if t.fatal != nil {
			t.logger.Error("storage failed permanently, stopping", "error", t.fatal)
			break
		}

		select {
		case <-ctx.Done():
		case <-t.stopCh:
		case <-ticker.C:
		}
	}

	return t.shutdown(ctx)
}

// Poll runs one cycle: observe, normalize, and on a key change commit the
// elapsed time of the previous key and flush.
func (t *Tracker) Poll(ctx context.Context) {
	obs, err := t.provider.ActiveWindow(ctx)
	if err != nil {
		t.logger.Debug("window query failed", "error", err)
		t.retryPending(ctx)
		return
	}
	if obs == nil {
		t.retryPending(ctx)
		return
	}

	now := t.now()
	title, class := obs.RawTitle(t.useInitialTitle), obs.RawClass()
	id := t.normalizer.Normalize(title, class)
	if id.IsEmpty() {
		t.retryPending(ctx)
		return
	}
	date := ledger.DateOf(now)

	t.mu.Lock()
	prev := t.state
	t.state.Title, t.state.Class = title, class
	if prev.Tracking && prev.Date == date && prev.Identity == id {
		t.mu.Unlock()
		t.retryPending(ctx)
		return
	}
	t.state.Tracking = true
	t.state.Date = date
	t.state.Identity = id
	t.state.Since = now
	t.mu.Unlock()

	if !prev.Tracking {
		t.logger.Info("tracking", "identity", id)
		return
	}

	elapsed := t.commit(prev.Identity, prev.Since, now)
	t.logger.Info("switched", "identity", id, "previous", prev.Identity, "elapsed", elapsed.Round(time.Millisecond))
	t.flush(ctx, false)
}

// commit credits now - since to id and returns the amount credited. A clock
// that went backwards credits nothing.
func (t *Tracker) commit(id normalize.Identity, since, now time.Time) time.Duration {
	elapsed := now.Sub(since)
	if elapsed <= 0 {
		return 0
	}

	if !t.splitAtMidnight {
		t.accrue(ledger.DateOf(now), id, elapsed)
		return elapsed
	}
	for _, seg := range splitByDay(since, now) {
		t.accrue(seg.date, id, seg.duration)
	}
	return elapsed
}

func (t *Tracker) accrue(date ledger.Date, id normalize.Identity, d time.Duration) {
	t.ledgerMu.Lock()
	err := t.ledger.Accrue(date, id, d)
	t.ledgerMu.Unlock()
	if err != nil {
		t.logger.Warn("accrue rejected", "date", date, "identity", id, "error", err)
		return
	}
	k := ledger.Key{Date: date, Identity: id}
	t.pending[k] += d + t.carry[k]
	delete(t.carry, k)
}

type daySegment struct {
	date     ledger.Date
	duration time.Duration
}

// splitByDay cuts [from, to) at every local midnight in between.
func splitByDay(from, to time.Time) []daySegment {
	var segments []daySegment
	cursor := from
	for {
		y, m, d := cursor.Date()
		midnight := time.Date(y, m, d+1, 0, 0, 0, 0, cursor.Location())
		if !midnight.Before(to) {
			segments = append(segments, daySegment{ledger.DateOf(cursor), to.Sub(cursor)})
			return segments
		}
		segments = append(segments, daySegment{ledger.DateOf(cursor), midnight.Sub(cursor)})
		cursor = midnight
	}
}

func (t *Tracker) retryPending(ctx context.Context) {
	if len(t.pending) == 0 || t.now().Before(t.retryAfter) {
		return
	}
	t.flush(ctx, false)
}

// flush writes the whole seconds of every pending delta. Sub-second
// remainders move to carry unless final is set, in which case carry is
// folded back and each delta is rounded to the nearest second. Keys whose
// write fails stay pending in full, so a later flush neither loses nor
// repeats them.
func (t *Tracker) flush(ctx context.Context, final bool) error {
	if final {
		for k, d := range t.carry {
			t.pending[k] += d
		}
		t.carry = make(map[ledger.Key]time.Duration)
	}
	if len(t.pending) == 0 {
		return nil
	}

	keys := make([]ledger.Key, 0, len(t.pending))
	for k := range t.pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].Identity < keys[j].Identity
	})

	var failed int
	var lastErr error
	for _, k := range keys {
		d := t.pending[k]
		write := d.Truncate(time.Second)
		if final {
			write = d.Round(time.Second)
		}
		if write <= 0 {
			if !final {
				t.carry[k] = d
			}
			delete(t.pending, k)
			continue
		}

		if err := t.upsert(ctx, ledger.Record{Date: k.Date, Identity: k.Identity, Duration: write}); err != nil {
			failed++
			lastErr = err
			if !storage.IsRetryable(err) && t.fatal == nil {
				t.fatal = err
			}
			continue
		}

		if rest := d - write; rest > 0 && !final {
			t.carry[k] = rest
		}
		delete(t.pending, k)
	}

	t.mu.Lock()
	t.state.Pending = len(t.pending)
	t.mu.Unlock()

	if failed == 0 {
		return nil
	}

	t.retryAfter = t.now().Add(t.retryDelay)
	err := fmt.Errorf("%d of %d writes failed: %w", failed, len(keys), lastErr)
	t.logger.Warn("flush failed", "failed", failed, "pending", len(t.pending), "error", lastErr)
	t.recordError(ctx, err)
	return err
}

// upsert runs one write under the write timeout. Cancelling ctx does not
// abort a write already started.
func (t *Tracker) upsert(ctx context.Context, rec ledger.Record) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.writeTimeout)
	defer cancel()
	return t.store.Upsert(wctx, rec)
}

func (t *Tracker) recordError(ctx context.Context, err error) {
	recorder, ok := t.store.(storage.ErrorRecorder)
	if !ok {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.writeTimeout)
	defer cancel()
	if rerr := recorder.RecordError(rctx, err.Error(), t.runID); rerr != nil {
		t.logger.Debug("error log write failed", "error", rerr)
	}
}

// shutdown commits the interval in progress and makes one last flush.
func (t *Tracker) shutdown(ctx context.Context) error {
	now := t.now()

	t.mu.Lock()
	prev := t.state
	t.state.Tracking = false
	t.state.Date, t.state.Identity, t.state.Since = "", normalize.Empty, time.Time{}
	t.mu.Unlock()

	if prev.Tracking {
		elapsed := t.commit(prev.Identity, prev.Since, now)
		t.logger.Info("final commit", "identity", prev.Identity, "elapsed", elapsed.Round(time.Millisecond))
	}

	flushErr := t.flush(ctx, true)
	if flushErr != nil {
		unsaved := len(t.pending)
		t.pending = make(map[ledger.Key]time.Duration)
		t.logger.Error("final write failed, unsaved time is lost", "keys", unsaved, "error", flushErr)
	}

	t.logger.Info("tracker stopped")

	if t.fatal != nil {
		return fmt.Errorf("storage: %w", t.fatal)
	}
	if flushErr != nil {
		return fmt.Errorf("final flush: %w", flushErr)
	}
	return nil
}
