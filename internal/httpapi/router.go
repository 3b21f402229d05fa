// Package httpapi exposes the tracking tables, the computed dashboard and
// the assistant proxy over HTTP.
package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/domain"
	"scrumtrack/internal/integrations/llm"
	"scrumtrack/internal/realtime"
)

type Deps struct {
	DB        *sql.DB
	Dashboard *dashboard.Service
	Hub       *realtime.Hub // nil disables change notifications and /realtime
	Assistant llm.Streamer  // nil makes /api/assistant answer 503
	Log       *zap.Logger
}

type api struct {
	db        *sql.DB
	dash      *dashboard.Service
	hub       *realtime.Hub
	assistant llm.Streamer
	log       *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Dashboard == nil {
		d.Dashboard = dashboard.NewService(d.DB, nil, nil)
	}
	a := &api{
		db:        d.DB,
		dash:      d.Dashboard,
		hub:       d.Hub,
		assistant: d.Assistant,
		log:       d.Log,
	}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(d.Log))
	r.Use(RecoveryMiddleware(d.Log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Hub != nil {
		r.Handle("/realtime", d.Hub)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/clients", a.listClients)
		r.Post("/clients", a.createClient)
		r.Get("/clients/{id}/status", a.clientStatus)

		r.Get("/backlog", a.listBacklog)
		r.Post("/backlog", a.createBacklog)
		r.Get("/backlog/{id}", a.getBacklog)
		r.Put("/backlog/{id}", a.updateBacklog)
		r.Delete("/backlog/{id}", a.deleteBacklog)
		r.Post("/backlog/{id}/advance", a.advanceBacklog)
		r.Post("/backlog/{id}/retreat", a.retreatBacklog)

		r.Get("/sprints", a.listSprints)
		r.Post("/sprints", a.createSprint)
		r.Delete("/sprints/{id}", a.deleteSprint)
		r.Get("/sprints/{id}/tasks", a.listSprintTasks)
		r.Post("/sprints/{id}/tasks", a.createSprintTask)
		r.Delete("/sprint-tasks/{id}", a.deleteSprintTask)
		r.Get("/sprint-tasks/{id}/subtasks", a.listSubtasks)
		r.Post("/sprint-tasks/{id}/subtasks", a.createSubtask)
		r.Put("/subtasks/{id}", a.updateSubtask)
		r.Delete("/subtasks/{id}", a.deleteSubtask)

		r.Get("/dailies", a.listDailies)
		r.Post("/dailies", a.createDaily)
		r.Put("/dailies/{id}", a.updateDaily)
		r.Delete("/dailies/{id}", a.deleteDaily)

		r.Get("/retrospectives", a.listRetroItems)
		r.Post("/retrospectives", a.createRetroItem)
		r.Put("/retrospectives/{id}", a.updateRetroItem)
		r.Post("/retrospectives/{id}/vote", a.voteRetroItem)
		r.Delete("/retrospectives/{id}", a.deleteRetroItem)

		r.Get("/schedule-lists", a.listScheduleLists)
		r.Post("/schedule-lists", a.createScheduleList)
		r.Delete("/schedule-lists/{id}", a.deleteScheduleList)
		r.Get("/schedule-lists/{id}/tasks", a.listScheduleTasks)
		r.Post("/schedule-lists/{id}/tasks", a.createScheduleTask)
		r.Put("/schedule-tasks/{id}", a.updateScheduleTask)
		r.Delete("/schedule-tasks/{id}", a.deleteScheduleTask)

		r.Get("/productivity", a.listProductivity)
		r.Post("/productivity", a.createProductivity)

		r.Get("/risks", a.listRisks)
		r.Post("/risks", a.createRisk)
		r.Put("/risks/{id}", a.updateRisk)
		r.Delete("/risks/{id}", a.deleteRisk)

		r.Get("/dashboard", a.getDashboard)
		r.Get("/roadmap", a.getRoadmap)
		r.Post("/assistant", a.assist)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

func (a *api) now() time.Time {
	return a.dash.Now()
}

func (a *api) loc() *time.Location {
	return a.dash.Location
}

// publish tells realtime subscribers that a row changed.
func (a *api) publish(table string, op domain.ChangeOp, id string) {
	if a.hub == nil {
		return
	}
	a.hub.Publish(domain.Change{Table: table, Op: op, ID: id, At: a.now().UTC()})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
