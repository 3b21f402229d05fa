package status

import (
	"fmt"
	"time"

	"scrumtrack/internal/domain"
)

// Lifecycle is the roadmap state of a backlog item.
type Lifecycle int

const (
	Unplanned Lifecycle = iota
	InPlanning
	InSprint
	Overdue
	Delivered
)

func (l Lifecycle) String() string {
	switch l {
	case Unplanned:
		return "unplanned"
	case InPlanning:
		return "in_planning"
	case InSprint:
		return "in_sprint"
	case Overdue:
		return "overdue"
	case Delivered:
		return "delivered"
	default:
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
}

func (l Lifecycle) MarshalText() ([]byte, error) {
	if l < Unplanned || l > Delivered {
		return nil, fmt.Errorf("invalid lifecycle %d", int(l))
	}
	return []byte(l.String()), nil
}

// SprintRef is the part of an item's sprint the deriver needs.
type SprintRef struct {
	Status  domain.SprintStatus
	EndDate time.Time
}

type LifecycleInput struct {
	Status      domain.ItemStatus
	Sprint      *SprintRef // nil when the item is in no sprint
	SubtaskEnds []time.Time
}

// DeriveLifecycle maps one backlog item to exactly one roadmap state. Dates
// are compared by calendar day in loc: an item is overdue only from the day
// after its deadline.
func DeriveLifecycle(in LifecycleInput, now time.Time, loc *time.Location) Lifecycle {
	if in.Status.IsComplete() {
		return Delivered
	}
	if in.Sprint == nil {
		return Unplanned
	}

	today := domain.DayOf(now, loc)
	if today.After(domain.DayOf(in.Sprint.EndDate, loc)) {
		return Overdue
	}
	if latest, ok := latestDate(in.SubtaskEnds); ok && today.After(domain.DayOf(latest, loc)) {
		return Overdue
	}

	if in.Sprint.Status == domain.SprintActive {
		return InSprint
	}
	return InPlanning
}

func latestDate(ts []time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, t := range ts {
		if t.IsZero() {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// RoadmapEntry pairs a backlog item with its derived state.
type RoadmapEntry struct {
	Item      domain.BacklogItem `json:"item"`
	State     Lifecycle          `json:"state"`
	SprintID  string             `json:"sprint_id"`
	SprintEnd *time.Time         `json:"sprint_end"`
	Subtasks  int                `json:"subtasks"`
	Size      int                `json:"size"`
}

// BuildRoadmap derives the lifecycle of every item. When an item is planned
// in several sprints the one ending last is used.
func BuildRoadmap(items []domain.BacklogItem, sprints []domain.Sprint, links []domain.SprintTask, subtasks []domain.Subtask, now time.Time, loc *time.Location) []RoadmapEntry {
	sprintByID := make(map[string]domain.Sprint, len(sprints))
	for _, s := range sprints {
		sprintByID[s.ID] = s
	}

	linkByItem := make(map[string]domain.SprintTask)
	for _, l := range links {
		s, ok := sprintByID[l.SprintID]
		if !ok {
			continue
		}
		prev, seen := linkByItem[l.BacklogItemID]
		if !seen || s.EndDate.After(sprintByID[prev.SprintID].EndDate) {
			linkByItem[l.BacklogItemID] = l
		}
	}

	subtasksByLink := make(map[string][]domain.Subtask)
	for _, st := range subtasks {
		subtasksByLink[st.SprintTaskID] = append(subtasksByLink[st.SprintTaskID], st)
	}

	out := make([]RoadmapEntry, 0, len(items))
	for _, it := range items {
		entry := RoadmapEntry{Item: it}
		in := LifecycleInput{Status: it.Status}

		if link, ok := linkByItem[it.ID]; ok {
			s := sprintByID[link.SprintID]
			end := s.EndDate
			entry.SprintID = s.ID
			entry.SprintEnd = &end
			in.Sprint = &SprintRef{Status: s.StatusAt(now, loc), EndDate: s.EndDate}
			for _, st := range subtasksByLink[link.ID] {
				entry.Subtasks++
				if st.EndDate != nil {
					in.SubtaskEnds = append(in.SubtaskEnds, *st.EndDate)
				}
			}
		}

		entry.State = DeriveLifecycle(in, now, loc)
		entry.Size = it.EffectiveSize(entry.Subtasks)
		out = append(out, entry)
	}
	return out
}
