package domain

import (
	"strings"
	"time"
)

// TaskTypeClient tags backlog items that are client-facing work. Only these
// items count towards methodology adherence.
const TaskTypeClient = "client"

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type BacklogItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      ItemStatus `json:"status"`
	ClientID    string     `json:"client_id"` // empty when not linked to a client
	TaskType    string     `json:"task_type"`
	Priority    Priority   `json:"priority"`
	StoryPoints int        `json:"story_points"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EffectiveSize is the subtask count when the item has subtasks, otherwise
// the manually entered story points.
func (b BacklogItem) EffectiveSize(subtaskCount int) int {
	if subtaskCount > 0 {
		return subtaskCount
	}
	return b.StoryPoints
}

type Sprint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusAt derives the sprint lifecycle from the date window, compared by
// calendar day in loc: planning before the start day, active through the end
// day, completed afterwards.
func (s Sprint) StatusAt(now time.Time, loc *time.Location) SprintStatus {
	today := DayOf(now, loc)
	switch {
	case today.Before(DayOf(s.StartDate, loc)):
		return SprintPlanning
	case today.After(DayOf(s.EndDate, loc)):
		return SprintCompleted
	default:
		return SprintActive
	}
}

// Intersects reports whether the sprint window overlaps [from, to].
func (s Sprint) Intersects(from, to time.Time) bool {
	return !s.StartDate.After(to) && !s.EndDate.Before(from)
}

// SprintTask links one backlog item to one sprint.
type SprintTask struct {
	ID            string     `json:"id"`
	SprintID      string     `json:"sprint_id"`
	BacklogItemID string     `json:"backlog_item_id"`
	Status        ItemStatus `json:"status"`
	Responsible   string     `json:"responsible"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Subtask struct {
	ID           string     `json:"id"`
	SprintTaskID string     `json:"sprint_task_id"`
	Title        string     `json:"title"`
	Responsible  string     `json:"responsible"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Status       ItemStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ScheduleList is one client's priority list (cronograma).
type ScheduleList struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ScheduleTask struct {
	ID           string         `json:"id"`
	ListID       string         `json:"list_id"`
	ParentID     string         `json:"parent_id"` // empty for top-level rows
	Title        string         `json:"title"`
	Status       ScheduleStatus `json:"status"`
	StartAt      *time.Time     `json:"start_at"`
	EndAt        *time.Time     `json:"end_at"`
	DurationDays int            `json:"duration_days"`
	SortOrder    int            `json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ProductivitySnapshot struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Opened         int       `json:"opened"`
	Closed         int       `json:"closed"`
	Backlog        int       `json:"backlog"`
	OpenOver15Days int       `json:"open_over_15_days"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClosedPct is closed/opened as a percentage; 0 when nothing was opened.
func (p ProductivitySnapshot) ClosedPct() float64 {
	if p.Opened == 0 {
		return 0
	}
	return float64(p.Closed) * 100 / float64(p.Opened)
}

// BacklogPct is backlog/opened as a percentage; 0 when nothing was opened.
func (p ProductivitySnapshot) BacklogPct() float64 {
	if p.Opened == 0 {
		return 0
	}
	return float64(p.Backlog) * 100 / float64(p.Opened)
}

type RiskRecord struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	Title        string     `json:"title"`
	Status       RiskStatus `json:"status"`
	Probability  int        `json:"probability"` // 1..5
	Impact       int        `json:"impact"`      // 1..5
	IdentifiedAt time.Time  `json:"identified_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (r RiskRecord) Severity() int {
	return r.Probability * r.Impact
}

func (r RiskRecord) SeverityLabel() string {
	switch s := r.Severity(); {
	case s >= 20:
		return "critical"
	case s >= 12:
		return "high"
	case s >= 6:
		return "medium"
	default:
		return "low"
	}
}

// Daily is one participant's stand-up update for one day of a sprint.
type Daily struct {
	ID          string    `json:"id"`
	SprintID    string    `json:"sprint_id"`
	Day         time.Time `json:"day"` // midnight of the stand-up day
	Participant string    `json:"participant"`
	Yesterday   string    `json:"yesterday"`
	Today       string    `json:"today"`
	Blockers    string    `json:"blockers"` // empty when nothing blocks
	CreatedAt   time.Time `json:"created_at"`
}

// Blocked reports whether the participant raised a blocker.
func (d Daily) Blocked() bool {
	return strings.TrimSpace(d.Blockers) != ""
}

// RetroItem is one card on a sprint's retrospective board.
type RetroItem struct {
	ID        string        `json:"id"`
	SprintID  string        `json:"sprint_id"`
	Category  RetroCategory `json:"category"`
	Content   string        `json:"content"`
	Author    string        `json:"author"`
	Votes     int           `json:"votes"`
	CreatedAt time.Time     `json:"created_at"`
}

// Change is one row-level write, fanned out to realtime subscribers.
type Change struct {
	Table string    `json:"table"`
	Op    ChangeOp  `json:"op"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)
