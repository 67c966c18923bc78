// Package schedule decides, once per calendar day, a single random time at
// which a promotion run is allowed to proceed. The process is expected to be
// triggered roughly hourly by an external scheduler; the gate makes only one
// of those invocations go through, at a minute that looks hand-picked rather
// than machine-regular.
package schedule

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// timeSlots are the allowed (hour, minute) pairs, all UTC. They span the
// site's business hours (6am-4pm Pacific) with irregular minutes so posting
// times don't land on the hour.
var timeSlots = [][2]int{
	{13, 12},
	{14, 23},
	{15, 8},
	{16, 37},
	{17, 19},
	{18, 26},
	{19, 43},
	{20, 17},
	{21, 33},
	{22, 11},
	{23, 29},
}

// Slot is one day's persisted posting time.
type Slot struct {
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	CreatedAt string `json:"created_at"`
}

// Gate wraps the slot file and answers "is it my turn right now?".
type Gate struct {
	path      string
	tolerance time.Duration

	now  func() time.Time
	intn func(n int) int
}

// NewGate creates a gate backed by the slot file at path. toleranceMinutes is
// how far from the chosen slot an invocation may land and still count as a
// match; it should be at least half the external trigger's interval.
func NewGate(path string, toleranceMinutes int) *Gate {
	return &Gate{
		path:      path,
		tolerance: time.Duration(toleranceMinutes) * time.Minute,
		now:       time.Now,
		intn:      rand.Intn,
	}
}

// Today returns the slot for the current UTC date, choosing and persisting
// one if none exists yet. A slot left over from an earlier date is ignored
// and replaced. Once written, the same slot is returned for the rest of the
// day no matter how often this is called.
func (g *Gate) Today() (*Slot, error) {
	today := g.now().UTC().Format("2006-01-02")

	if slot, err := g.load(); err == nil && slot.Date == today {
		return slot, nil
	}

	pick := timeSlots[g.intn(len(timeSlots))]
	slot := &Slot{
		Date:      today,
		Hour:      pick[0],
		Minute:    pick[1],
		CreatedAt: g.now().UTC().Format(time.RFC3339),
	}
	if err := g.save(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ShouldRunNow reports whether the current time is within the tolerance
// window of today's slot. It creates the slot as a side effect if this is
// the first check of the day.
func (g *Gate) ShouldRunNow() (bool, error) {
	slot, err := g.Today()
	if err != nil {
		return false, err
	}

	now := g.now().UTC()
	target := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, time.UTC)

	diff := now.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= g.tolerance, nil
}

func (g *Gate) load() (*Slot, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil, err
	}
	var slot Slot
	if err := json.Unmarshal(data, &slot); err != nil {
		return nil, fmt.Errorf("parsing schedule file: %w", err)
	}
	return &slot, nil
}

func (g *Gate) save(slot *Slot) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("creating schedule dir: %w", err)
	}
	data, err := json.MarshalIndent(slot, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.path, data, 0o644); err != nil {
		return fmt.Errorf("writing schedule file: %w", err)
	}
	return nil
}
