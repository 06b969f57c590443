// Package leaderboard ranks couriers by the amount they delivered during the
// current ISO week.
package leaderboard

import (
	"sort"
	"time"

	"github.com/GlebRadaev/courierstats/internal/domain"
)

// WeekStart returns Monday 00:00 of the ISO week containing ref, in ref's location.
func WeekStart(ref time.Time) time.Time {
	isoWeekday := int(ref.Weekday())
	if isoWeekday == 0 {
		isoWeekday = 7
	}
	y, m, d := ref.Date()
	return time.Date(y, m, d-(isoWeekday-1), 0, 0, 0, 0, ref.Location())
}

// Tally accumulates ledger records into per-courier totals. The window is
// bounded below by the week start only, so records dated after ref count too.
type Tally struct {
	start   time.Time
	index   map[string]int
	entries []domain.LeaderboardEntry
}

func NewTally(ref time.Time) *Tally {
	return &Tally{
		start: WeekStart(ref),
		index: make(map[string]int),
	}
}

func (t *Tally) Start() time.Time {
	return t.start
}

func (t *Tally) Add(rec domain.DeliveryRecord) {
	if rec.Status != domain.StatusDelivered || rec.Timestamp.Before(t.start) {
		return
	}
	i, ok := t.index[rec.CourierID]
	if !ok {
		i = len(t.entries)
		t.index[rec.CourierID] = i
		t.entries = append(t.entries, domain.LeaderboardEntry{CourierID: rec.CourierID})
	}
	t.entries[i].Total += rec.Amount
	if rec.CourierHandle.Valid {
		t.entries[i].Handle = rec.CourierHandle
	}
}

// Entries returns the ranking, highest total first. Equal totals keep the
// order in which couriers were first seen.
func (t *Tally) Entries() []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

func Aggregate(ref time.Time, records []domain.DeliveryRecord) []domain.LeaderboardEntry {
	t := NewTally(ref)
	for _, rec := range records {
		t.Add(rec)
	}
	return t.Entries()
}
