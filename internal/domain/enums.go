package domain

import (
	"fmt"
	"strings"
)

// ItemStatus is the completion status shared by backlog items, sprint tasks
// and subtasks. Transitions follow todo -> doing -> done -> validated.
type ItemStatus string

const (
	StatusTodo      ItemStatus = "todo"
	StatusDoing     ItemStatus = "doing"
	StatusDone      ItemStatus = "done"
	StatusValidated ItemStatus = "validated"
)

var itemStatusOrder = []ItemStatus{StatusTodo, StatusDoing, StatusDone, StatusValidated}

func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTodo, StatusDoing, StatusDone, StatusValidated:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown item status %q", ErrInvalid, s)
	}
}

// IsComplete reports whether the work is done or validated.
func (s ItemStatus) IsComplete() bool {
	return s == StatusDone || s == StatusValidated
}

// Next returns the following status, or false at validated.
func (s ItemStatus) Next() (ItemStatus, bool) {
	for i, st := range itemStatusOrder {
		if st == s && i+1 < len(itemStatusOrder) {
			return itemStatusOrder[i+1], true
		}
	}
	return s, false
}

// Prev returns the preceding status, or false at todo.
func (s ItemStatus) Prev() (ItemStatus, bool) {
	for i, st := range itemStatusOrder {
		if st == s && i > 0 {
			return itemStatusOrder[i-1], true
		}
	}
	return s, false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	case "":
		return PriorityMedium, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalid, s)
	}
}

type SprintStatus string

const (
	SprintPlanning  SprintStatus = "planning"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

// ScheduleStatus is the status of a cronograma row.
type ScheduleStatus string

const (
	ScheduleNotStarted ScheduleStatus = "not_started"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch st := ScheduleStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ScheduleNotStarted, ScheduleInProgress, ScheduleCompleted, ScheduleCancelled:
		return st, nil
	case "":
		return ScheduleNotStarted, nil
	default:
		return "", fmt.Errorf("%w: unknown schedule status %q", ErrInvalid, s)
	}
}

type RiskStatus string

const (
	RiskOpen         RiskStatus = "Open"
	RiskInMitigation RiskStatus = "In mitigation"
	RiskMitigated    RiskStatus = "Mitigated"
	RiskMaterialized RiskStatus = "Materialized"
)

func ParseRiskStatus(s string) (RiskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return RiskOpen, nil
	case "in mitigation", "in_mitigation":
		return RiskInMitigation, nil
	case "mitigated":
		return RiskMitigated, nil
	case "materialized":
		return RiskMaterialized, nil
	default:
		return "", fmt.Errorf("%w: unknown risk status %q", ErrInvalid, s)
	}
}

// RetroCategory is the column a retrospective card sits in.
type RetroCategory string

const (
	RetroWentWell  RetroCategory = "went_well"
	RetroToImprove RetroCategory = "to_improve"
	RetroAction    RetroCategory = "action_item"
)

func ParseRetroCategory(s string) (RetroCategory, error) {
	switch c := RetroCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case RetroWentWell, RetroToImprove, RetroAction:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown retrospective category %q", ErrInvalid, s)
	}
}
