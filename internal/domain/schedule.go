package domain

import "time"

// SummaryRollup is the derived view of a summary (phase) row in a schedule:
// its window spans its children and its progress is the share of completed
// non-cancelled children.
type SummaryRollup struct {
	TaskID      string     `json:"task_id"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Children    int        `json:"children"`
	Completed   int        `json:"completed"`
	ProgressPct float64    `json:"progress_pct"`
}

// RollupSummaries computes a SummaryRollup for every task that is the parent
// of at least one other task in the list. Hierarchies are two levels deep, so
// only direct children are considered.
func RollupSummaries(tasks []ScheduleTask) map[string]SummaryRollup {
	out := make(map[string]SummaryRollup)
	for _, t := range tasks {
		if t.ParentID == "" {
			continue
		}
		r := out[t.ParentID]
		r.TaskID = t.ParentID
		if t.StartAt != nil && (r.StartAt == nil || t.StartAt.Before(*r.StartAt)) {
			start := *t.StartAt
			r.StartAt = &start
		}
		if t.EndAt != nil && (r.EndAt == nil || t.EndAt.After(*r.EndAt)) {
			end := *t.EndAt
			r.EndAt = &end
		}
		if t.Status != ScheduleCancelled {
			r.Children++
			if t.Status == ScheduleCompleted {
				r.Completed++
			}
		}
		out[t.ParentID] = r
	}
	for id, r := range out {
		if r.Children > 0 {
			r.ProgressPct = float64(r.Completed) / float64(r.Children) * 100
		}
		out[id] = r
	}
	return out
}
