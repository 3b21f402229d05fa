package status

import (
	"time"

	"scrumtrack/internal/domain"
)

type ScheduleListResult struct {
	ListID      string  `json:"list_id"`
	Light       Light   `json:"light"`
	Open        int     `json:"open"` // not completed, not cancelled, with an end date
	Overdue     int     `json:"overdue"`
	Considered  int     `json:"considered"` // non-cancelled tasks, denominator of OverduePct
	OverduePct  float64 `json:"overdue_pct"`
	MaxDaysLate int     `json:"max_days_late"`
	Explanation string  `json:"explanation"`
}

// ClassifyScheduleList rates one priority list by its overdue tasks. Days
// late are counted in calendar days of loc. Summary rows, those with child
// rows, are rated through their children only.
func ClassifyScheduleList(listID string, tasks []domain.ScheduleTask, now time.Time, loc *time.Location) ScheduleListResult {
	res := ScheduleListResult{ListID: listID}

	parents := make(map[string]bool)
	for _, t := range tasks {
		if t.ParentID != "" {
			parents[t.ParentID] = true
		}
	}

	for _, t := range tasks {
		if parents[t.ID] {
			continue
		}
		if t.Status != domain.ScheduleCancelled {
			res.Considered++
		}
		if t.Status == domain.ScheduleCompleted || t.Status == domain.ScheduleCancelled || t.EndAt == nil {
			continue
		}
		res.Open++
		if !t.EndAt.Before(now) {
			continue
		}
		res.Overdue++
		if late := domain.DaysBetween(*t.EndAt, now, loc); late > res.MaxDaysLate {
			res.MaxDaysLate = late
		}
	}

	switch {
	case res.Open == 0 || res.Overdue == 0:
		res.Light = Green
	default:
		res.OverduePct = float64(res.Overdue) * 100 / float64(res.Considered)
		if res.MaxDaysLate > ScheduleRedDaysLate || res.OverduePct > ScheduleRedOverduePct {
			res.Light = Red
		} else {
			res.Light = Yellow
		}
	}
	res.Explanation = ExplainScheduleList(res)
	return res
}

type PrioritiesResult struct {
	Light       Light                `json:"light"`
	Lists       []ScheduleListResult `json:"lists"`
	YellowPct   float64              `json:"yellow_pct"`
	Escalated   bool                 `json:"escalated"` // forced red by the share of yellow lists
	RedLists    int                  `json:"red_lists"`
	YellowLists int                  `json:"yellow_lists"`
}

// ClassifyClientPriorities combines a client's lists: the worst list wins,
// and when at least ClientYellowListsRedPct of the lists are yellow the
// client is red even though no single list is.
func ClassifyClientPriorities(lists []ScheduleListResult) PrioritiesResult {
	res := PrioritiesResult{Lists: lists}
	if len(lists) == 0 {
		res.Light = Gray
		return res
	}

	worst := Gray
	for _, l := range lists {
		worst = Worst(worst, l.Light)
		switch l.Light {
		case Red:
			res.RedLists++
		case Yellow:
			res.YellowLists++
		}
	}

	res.YellowPct = float64(res.YellowLists) * 100 / float64(len(lists))
	res.Light = worst
	if worst != Red && res.YellowPct >= ClientYellowListsRedPct {
		res.Light = Red
		res.Escalated = true
	}
	return res
}
