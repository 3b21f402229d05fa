package status

import (
	"time"

	"scrumtrack/internal/domain"
)

// DateRange filters records by a date. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range, bounds inclusive.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

type ProductivityResult struct {
	Light          Light                        `json:"light"`
	Snapshot       *domain.ProductivitySnapshot `json:"snapshot"` // the snapshot that was rated
	Open15Light    Light                        `json:"open15_light"`
	BacklogLight   Light                        `json:"backlog_light"`
	BacklogPct     float64                      `json:"backlog_pct"`
	ClosedPct      float64                      `json:"closed_pct"`
	Opened         int                          `json:"opened"`
	Closed         int                          `json:"closed"`
	Backlog        int                          `json:"backlog"`
	OpenOver15Days int                          `json:"open_over_15_days"`
}

// LatestSnapshot returns the snapshot with the latest period end among those
// whose period end falls in rng, or nil.
func LatestSnapshot(snapshots []domain.ProductivitySnapshot, rng *DateRange) *domain.ProductivitySnapshot {
	var latest *domain.ProductivitySnapshot
	for i := range snapshots {
		s := &snapshots[i]
		if !rng.Contains(s.PeriodEnd) {
			continue
		}
		if latest == nil || s.PeriodEnd.After(latest.PeriodEnd) {
			latest = s
		}
	}
	return latest
}

// ClassifyProductivity rates the client's most recent snapshot on two
// independent sub-scores and keeps the worse.
func ClassifyProductivity(snapshots []domain.ProductivitySnapshot, rng *DateRange) ProductivityResult {
	snap := LatestSnapshot(snapshots, rng)
	if snap == nil {
		return ProductivityResult{Light: Gray}
	}

	res := ProductivityResult{
		Snapshot:       snap,
		Opened:         snap.Opened,
		Closed:         snap.Closed,
		Backlog:        snap.Backlog,
		OpenOver15Days: snap.OpenOver15Days,
		ClosedPct:      snap.ClosedPct(),
		Open15Light:    open15Light(snap.OpenOver15Days),
	}

	// Nothing opened means no backlog pressure to measure.
	if snap.Opened == 0 {
		res.BacklogLight = Green
	} else {
		res.BacklogPct = snap.BacklogPct()
		res.BacklogLight = backlogLight(res.BacklogPct)
	}

	res.Light = Worst(res.Open15Light, res.BacklogLight)
	return res
}

func open15Light(n int) Light {
	switch {
	case n >= ProductivityOpen15Red:
		return Red
	case n >= ProductivityOpen15Yellow:
		return Yellow
	default:
		return Green
	}
}

func backlogLight(pct float64) Light {
	switch {
	case pct >= ProductivityBacklogRed:
		return Red
	case pct >= ProductivityBacklogYellow:
		return Yellow
	default:
		return Green
	}
}
