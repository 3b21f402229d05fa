package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

type createScheduleListRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

func (a *api) listScheduleLists(w http.ResponseWriter, r *http.Request) {
	lists, err := sqlite.ListScheduleLists(r.Context(), a.db, r.URL.Query().Get("client_id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (a *api) createScheduleList(w http.ResponseWriter, r *http.Request) {
	var req createScheduleListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("client_id", req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("name", req.Name); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.checkClient(req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	l, err := sqlite.InsertScheduleList(a.db, domain.ScheduleList{ClientID: req.ClientID, Name: req.Name, CreatedAt: a.now()})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("schedule_lists", domain.OpInsert, l.ID)
	writeJSON(w, http.StatusCreated, l)
}

func (a *api) deleteScheduleList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteScheduleList(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("schedule_lists", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

type scheduleTaskRequest struct {
	ParentID     string  `json:"parent_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	StartAt      *string `json:"start_at"`
	EndAt        *string `json:"end_at"`
	DurationDays int     `json:"duration_days"`
	SortOrder    int     `json:"sort_order"`
}

// applyScheduleTask validates req against t's list and copies it onto t.
// A parent must be another row of the same list.
func (a *api) applyScheduleTask(req scheduleTaskRequest, t *domain.ScheduleTask) error {
	if err := required("title", req.Title); err != nil {
		return err
	}
	if req.DurationDays < 0 {
		return fmt.Errorf("%w: duration_days must be non-negative", domain.ErrInvalid)
	}
	if req.ParentID != "" {
		if req.ParentID == t.ID {
			return fmt.Errorf("%w: a task cannot be its own parent", domain.ErrInvalid)
		}
		parent, err := sqlite.GetScheduleTask(a.db, req.ParentID)
		if err != nil {
			return fmt.Errorf("%w: parent %s: %v", domain.ErrInvalid, req.ParentID, err)
		}
		if parent.ListID != t.ListID {
			return fmt.Errorf("%w: parent %s belongs to another list", domain.ErrInvalid, req.ParentID)
		}
	}
	status, err := domain.ParseScheduleStatus(req.Status)
	if err != nil {
		return err
	}
	start, err := optionalTime("start_at", req.StartAt, a.loc())
	if err != nil {
		return err
	}
	end, err := optionalTime("end_at", req.EndAt, a.loc())
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_at is before start_at", domain.ErrInvalid)
	}

	t.ParentID = req.ParentID
	t.Title = req.Title
	t.Status = status
	t.StartAt = start
	t.EndAt = end
	t.DurationDays = req.DurationDays
	t.SortOrder = req.SortOrder
	return nil
}

func (a *api) listScheduleTasks(w http.ResponseWriter, r *http.Request) {
	l, err := sqlite.GetScheduleList(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	tasks, err := sqlite.ListScheduleTasks(r.Context(), a.db, l.ID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

func (a *api) createScheduleTask(w http.ResponseWriter, r *http.Request) {
	var req scheduleTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	l, err := sqlite.GetScheduleList(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	t := domain.ScheduleTask{ListID: l.ID, CreatedAt: a.now()}
	if err := a.applyScheduleTask(req, &t); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	t, err = sqlite.InsertScheduleTask(a.db, t)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("schedule_tasks", domain.OpInsert, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (a *api) updateScheduleTask(w http.ResponseWriter, r *http.Request) {
	var req scheduleTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	t, err := sqlite.GetScheduleTask(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.applyScheduleTask(req, &t); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := sqlite.UpdateScheduleTask(a.db, t); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("schedule_tasks", domain.OpUpdate, t.ID)
	t, err = sqlite.GetScheduleTask(a.db, t.ID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) deleteScheduleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteScheduleTask(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("schedule_tasks", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
