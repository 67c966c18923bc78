package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testGate(t *testing.T, now time.Time) *Gate {
	t.Helper()
	g := NewGate(filepath.Join(t.TempDir(), "schedule.json"), 10)
	g.now = func() time.Time { return now }
	return g
}

func TestTodayIdempotent(t *testing.T) {
	g := testGate(t, time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))

	calls := 0
	g.intn = func(n int) int { calls++; return 3 }

	first, err := g.Today()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Hour != 16 || first.Minute != 37 {
		t.Errorf("expected slot 16:37, got %02d:%02d", first.Hour, first.Minute)
	}

	// Second call must read the persisted slot, not re-roll.
	g.intn = func(n int) int { t.Fatal("slot re-randomized"); return 0 }
	second, err := g.Today()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second != *first {
		t.Errorf("expected identical slot, got %+v vs %+v", second, first)
	}
	if calls != 1 {
		t.Errorf("expected exactly one random draw, got %d", calls)
	}
}

func TestTodaySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	now := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	g1 := NewGate(path, 10)
	g1.now = func() time.Time { return now }
	g1.intn = func(n int) int { return 0 }
	first, err := g1.Today()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh gate on the same file, as a later process invocation would see.
	g2 := NewGate(path, 10)
	g2.now = func() time.Time { return now.Add(3 * time.Hour) }
	g2.intn = func(n int) int { return 7 }
	second, err := g2.Today()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second != *first {
		t.Errorf("expected persisted slot, got %+v vs %+v", second, first)
	}
}

func TestTodayRollsOverDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")

	g := NewGate(path, 10)
	g.now = func() time.Time { return time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC) }
	g.intn = func(n int) int { return 0 }
	if _, err := g.Today(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Next day: the stale record is replaced with a fresh draw.
	g.now = func() time.Time { return time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC) }
	g.intn = func(n int) int { return 5 }
	slot, err := g.Today()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Date != "2026-08-27" {
		t.Errorf("expected new date, got %s", slot.Date)
	}
	if slot.Hour != 18 || slot.Minute != 26 {
		t.Errorf("expected slot 18:26, got %02d:%02d", slot.Hour, slot.Minute)
	}
}

func TestShouldRunNow(t *testing.T) {
	// Slot index 4 is 17:19 UTC.
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact match", time.Date(2026, 8, 26, 17, 19, 0, 0, time.UTC), true},
		{"within tolerance before", time.Date(2026, 8, 26, 17, 10, 0, 0, time.UTC), true},
		{"within tolerance after", time.Date(2026, 8, 26, 17, 29, 0, 0, time.UTC), true},
		{"just outside", time.Date(2026, 8, 26, 17, 30, 1, 0, time.UTC), false},
		{"wrong hour", time.Date(2026, 8, 26, 13, 19, 0, 0, time.UTC), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := testGate(t, tc.now)
			g.intn = func(n int) int { return 4 }
			got, err := g.ShouldRunNow()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ShouldRunNow at %v = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestCorruptScheduleFileRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGate(path, 10)
	g.now = func() time.Time { return time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC) }
	g.intn = func(n int) int { return 0 }

	slot, err := g.Today()
	if err != nil {
		t.Fatalf("expected recovery from corrupt file, got %v", err)
	}
	if slot.Date != "2026-08-26" {
		t.Errorf("expected fresh slot, got %+v", slot)
	}
}
