// Package dashboard loads tracking data from storage and runs the status
// engine over it. Nothing derived is persisted; every call recomputes.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/status"
	"scrumtrack/internal/storage/sqlite"
)

// Snapshot is every table the engine reads, loaded at one point in time.
type Snapshot struct {
	Clients       []domain.Client
	Items         []domain.BacklogItem
	Sprints       []domain.Sprint
	Links         []domain.SprintTask
	Subtasks      []domain.Subtask
	Lists         []domain.ScheduleList
	ScheduleTasks []domain.ScheduleTask
	Productivity  []domain.ProductivitySnapshot
	Risks         []domain.RiskRecord
}

// Filter narrows what the classifiers look at. Period drives methodology;
// Range filters productivity snapshots and risks.
type Filter struct {
	Period *status.Period
	Range  *status.DateRange
}

// MonthFilter covers the calendar month containing now in loc for
// methodology, with no date restriction on productivity and risks.
func MonthFilter(now time.Time, loc *time.Location) Filter {
	start, next := domain.MonthRangeAt(now.In(loc))
	return Filter{Period: &status.Period{Start: start, End: next.Add(-time.Nanosecond)}}
}

type Service struct {
	DB       *sql.DB
	Now      domain.Clock
	Location *time.Location
}

func NewService(db *sql.DB, now domain.Clock, loc *time.Location) *Service {
	if now == nil {
		now = domain.SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Now: now, Location: loc}
}

// Load reads every table under one errgroup; the first failure or a
// cancelled ctx aborts the remaining queries. The pool holds a single
// connection, so the reads queue on it rather than run in parallel.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	load := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			return nil
		})
	}

	load("clients", func(ctx context.Context) (err error) { snap.Clients, err = sqlite.ListClients(ctx, s.DB); return })
	load("backlog", func(ctx context.Context) (err error) { snap.Items, err = sqlite.ListBacklogItems(ctx, s.DB, ""); return })
	load("sprints", func(ctx context.Context) (err error) { snap.Sprints, err = sqlite.ListSprints(ctx, s.DB); return })
	load("sprint tasks", func(ctx context.Context) (err error) { snap.Links, err = sqlite.ListSprintTasks(ctx, s.DB, ""); return })
	load("subtasks", func(ctx context.Context) (err error) { snap.Subtasks, err = sqlite.ListSubtasks(ctx, s.DB, ""); return })
	load("schedule lists", func(ctx context.Context) (err error) { snap.Lists, err = sqlite.ListScheduleLists(ctx, s.DB, ""); return })
	load("schedule tasks", func(ctx context.Context) (err error) {
		snap.ScheduleTasks, err = sqlite.ListScheduleTasks(ctx, s.DB, "")
		return
	})
	load("productivity", func(ctx context.Context) (err error) {
		snap.Productivity, err = sqlite.ListProductivitySnapshots(ctx, s.DB, "", nil, nil)
		return
	})
	load("risks", func(ctx context.Context) (err error) { snap.Risks, err = sqlite.ListRisks(ctx, s.DB, "", nil, nil); return })

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Dashboard loads a snapshot and computes every client bundle plus the
// portfolio rollups.
func (s *Service) Dashboard(ctx context.Context, f Filter) (Dashboard, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Compute(snap, f, s.Now(), s.Location), nil
}

// ClientStatus computes one client's bundle.
func (s *Service) ClientStatus(ctx context.Context, clientID string, f Filter) (ClientStatusBundle, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return ClientStatusBundle{}, err
	}
	for _, c := range snap.Clients {
		if c.ID == clientID {
			return ComputeClient(snap, c, f, s.Now(), s.Location), nil
		}
	}
	return ClientStatusBundle{}, fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
}

// Roadmap derives the lifecycle state of every backlog item.
func (s *Service) Roadmap(ctx context.Context) ([]status.RoadmapEntry, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return status.BuildRoadmap(snap.Items, snap.Sprints, snap.Links, snap.Subtasks, s.Now(), s.Location), nil
}
