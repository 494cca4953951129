package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/actionsum/ctvtcntr/internal/normalize"

	"pgregory.net/rapid"
)

func TestAccrue(t *testing.T) {
	l := New()

	if err := l.Accrue("2025-03-01", "Discord", 3*time.Second); err != nil {
		t.Fatalf("Accrue() error: %v", err)
	}
	if err := l.Accrue("2025-03-01", "Discord", 2*time.Second); err != nil {
		t.Fatalf("Accrue() error: %v", err)
	}

	got, ok := l.Get("2025-03-01", "Discord")
	if !ok {
		t.Fatal("Get() found no record after Accrue")
	}
	if got != 5*time.Second {
		t.Errorf("Get() = %v, want 5s", got)
	}
}

func TestAccrueZeroIsNoOp(t *testing.T) {
	l := New()
	if err := l.Accrue("2025-03-01", "Discord", 0); err != nil {
		t.Fatalf("Accrue(0) error: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d after zero accrual, want 0", l.Len())
	}
}

func TestAccrueRejects(t *testing.T) {
	l := New()

	err := l.Accrue("2025-03-01", "Discord", -time.Second)
	if !errors.Is(err, ErrNegativeDuration) {
		t.Errorf("Accrue(-1s) error = %v, want ErrNegativeDuration", err)
	}

	err = l.Accrue("2025-03-01", normalize.Empty, time.Second)
	if !errors.Is(err, ErrEmptyIdentity) {
		t.Errorf("Accrue(empty) error = %v, want ErrEmptyIdentity", err)
	}

	if l.Len() != 0 {
		t.Errorf("Len() = %d after rejected accruals, want 0", l.Len())
	}
}

func TestSnapshotOrder(t *testing.T) {
	l := New()
	l.Accrue("2025-03-02", "Alpha", time.Second)
	l.Accrue("2025-03-01", "Zulu", time.Second)
	l.Accrue("2025-03-01", "Alpha", time.Second)

	want := []Key{
		{"2025-03-01", "Alpha"},
		{"2025-03-01", "Zulu"},
		{"2025-03-02", "Alpha"},
	}

	got := l.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("Snapshot() returned %d records, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Key() != want[i] {
			t.Errorf("Snapshot()[%d] = %v, want %v", i, r.Key(), want[i])
		}
	}
}

func TestSeed(t *testing.T) {
	l := New()
	l.Seed([]Record{
		{Date: "2025-03-01", Identity: "Kitty", Duration: 10 * time.Second},
		{Date: "2025-03-01", Identity: "Kitty", Duration: 5 * time.Second},
		{Date: "2025-03-01", Identity: "Bad", Duration: -5 * time.Second},
		{Date: "2025-03-01", Identity: normalize.Empty, Duration: 5 * time.Second},
		{Date: "2025-03-02", Identity: "Corrupt", Duration: 0},
	})

	if got, _ := l.Get("2025-03-01", "Kitty"); got != 15*time.Second {
		t.Errorf("Get(Kitty) = %v, want 15s", got)
	}
	if got, ok := l.Get("2025-03-02", "Corrupt"); !ok || got != 0 {
		t.Errorf("Get(Corrupt) = %v, %v; want 0, true", got, ok)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
}

func TestDates(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	ts := time.Date(2025, 12, 31, 23, 59, 0, 0, loc)
	if got := DateOf(ts); got != "2025-12-31" {
		t.Errorf("DateOf() = %s, want 2025-12-31", got)
	}

	midnight, err := Date("2025-12-31").Time(loc)
	if err != nil {
		t.Fatalf("Time() error: %v", err)
	}
	if !midnight.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, loc)) {
		t.Errorf("Time() = %v", midnight)
	}

	if _, err := ParseDate("2025-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate(bad) error = %v, want ErrInvalidDate", err)
	}
	if d, err := ParseDate("2025-01-09"); err != nil || d != "2025-01-09" {
		t.Errorf("ParseDate() = %q, %v", d, err)
	}
}

func TestAccrueIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := New()
		deltas := rapid.SliceOf(rapid.Int64Range(0, int64(10*time.Hour))).Draw(t, "deltas")

		var sum, prev time.Duration
		for _, d := range deltas {
			if err := l.Accrue("2025-03-01", "NeoVim", time.Duration(d)); err != nil {
				t.Fatalf("Accrue(%v) error: %v", d, err)
			}
			sum += time.Duration(d)

			got, _ := l.Get("2025-03-01", "NeoVim")
			if got < prev {
				t.Fatalf("duration decreased from %v to %v", prev, got)
			}
			prev = got
		}

		got, _ := l.Get("2025-03-01", "NeoVim")
		if got != sum {
			t.Fatalf("total = %v, want sum of deltas %v", got, sum)
		}
	})
}
