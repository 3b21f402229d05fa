package status

import (
	"time"

	"scrumtrack/internal/domain"
)

// Period is a caller-supplied reporting window. A nil *Period means none was
// given.
type Period struct {
	Start time.Time
	End   time.Time
}

type MethodologyResult struct {
	Light        Light   `json:"light"`
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	ElapsedPct   float64 `json:"elapsed_pct"`
	CompletedPct float64 `json:"completed_pct"`
	Deviation    float64 `json:"deviation"` // positive means behind schedule
	HasPeriod    bool    `json:"has_period"`
}

// MethodologyScope selects the client's client-facing backlog items that are
// linked to at least one sprint whose window intersects the period. Each item
// appears once even when planned in several sprints.
func MethodologyScope(clientID string, items []domain.BacklogItem, links []domain.SprintTask, sprints []domain.Sprint, period *Period) []domain.BacklogItem {
	if period == nil {
		return nil
	}
	inPeriod := make(map[string]bool, len(sprints))
	for _, s := range sprints {
		if s.Intersects(period.Start, period.End) {
			inPeriod[s.ID] = true
		}
	}
	planned := make(map[string]bool, len(links))
	for _, l := range links {
		if inPeriod[l.SprintID] {
			planned[l.BacklogItemID] = true
		}
	}

	var out []domain.BacklogItem
	for _, it := range items {
		if it.ClientID != clientID || it.TaskType != domain.TaskTypeClient {
			continue
		}
		if planned[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// ClassifyMethodology compares how much of the reporting period has elapsed
// with how much of the scoped work is complete.
func ClassifyMethodology(items []domain.BacklogItem, period *Period, now time.Time) MethodologyResult {
	res := MethodologyResult{Total: len(items), HasPeriod: period != nil}
	if period == nil || len(items) == 0 {
		res.Light = Gray
		return res
	}

	for _, it := range items {
		if it.Status.IsComplete() {
			res.Completed++
		}
	}

	res.ElapsedPct = elapsedPct(period, now)
	res.CompletedPct = float64(res.Completed) * 100 / float64(res.Total)
	res.Deviation = res.ElapsedPct - res.CompletedPct

	switch {
	case res.Deviation > MethodologyRedDeviation:
		res.Light = Red
	case res.Deviation > MethodologyYellowDeviation:
		res.Light = Yellow
	default:
		res.Light = Green
	}
	return res
}

func elapsedPct(p *Period, now time.Time) float64 {
	span := p.End.Sub(p.Start)
	if span <= 0 {
		if now.Before(p.Start) {
			return 0
		}
		return 100
	}
	pct := float64(now.Sub(p.Start)) * 100 / float64(span)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
