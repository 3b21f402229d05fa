package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

type backlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ClientID    string `json:"client_id"`
	TaskType    string `json:"task_type"`
	Priority    string `json:"priority"`
	StoryPoints int    `json:"story_points"`
}

// apply validates req and copies it onto item. An empty status keeps the
// item's current one.
func (a *api) apply(req backlogRequest, item *domain.BacklogItem) error {
	if err := required("title", req.Title); err != nil {
		return err
	}
	if req.StoryPoints < 0 {
		return fmt.Errorf("%w: story_points must be non-negative", domain.ErrInvalid)
	}
	if req.ClientID != "" {
		if err := a.checkClient(req.ClientID); err != nil {
			return err
		}
	}
	if req.Status != "" {
		st, err := domain.ParseItemStatus(req.Status)
		if err != nil {
			return err
		}
		item.Status = st
	}
	p, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return err
	}

	item.Title = req.Title
	item.Description = req.Description
	item.ClientID = req.ClientID
	item.TaskType = req.TaskType
	item.Priority = p
	item.StoryPoints = req.StoryPoints
	return nil
}

func (a *api) listBacklog(w http.ResponseWriter, r *http.Request) {
	items, err := sqlite.ListBacklogItems(r.Context(), a.db, r.URL.Query().Get("client_id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (a *api) createBacklog(w http.ResponseWriter, r *http.Request) {
	var req backlogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	item := domain.BacklogItem{CreatedAt: a.now()}
	if err := a.apply(req, &item); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	item, err := sqlite.InsertBacklogItem(a.db, item)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("backlog_items", domain.OpInsert, item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (a *api) getBacklog(w http.ResponseWriter, r *http.Request) {
	item, err := sqlite.GetBacklogItem(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *api) updateBacklog(w http.ResponseWriter, r *http.Request) {
	var req backlogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	item, err := sqlite.GetBacklogItem(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.apply(req, &item); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := sqlite.UpdateBacklogItem(a.db, item); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("backlog_items", domain.OpUpdate, item.ID)
	a.respondBacklog(w, item.ID)
}

func (a *api) deleteBacklog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteBacklogItem(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("backlog_items", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) advanceBacklog(w http.ResponseWriter, r *http.Request) {
	a.moveBacklog(w, r, domain.ItemStatus.Next, "advanced past")
}

func (a *api) retreatBacklog(w http.ResponseWriter, r *http.Request) {
	a.moveBacklog(w, r, domain.ItemStatus.Prev, "moved back from")
}

// moveBacklog steps the item one status along the workflow.
func (a *api) moveBacklog(w http.ResponseWriter, r *http.Request, step func(domain.ItemStatus) (domain.ItemStatus, bool), verb string) {
	item, err := sqlite.GetBacklogItem(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	next, ok := step(item.Status)
	if !ok {
		writeDomainError(w, a.log, fmt.Errorf("%w: item cannot be %s %s", domain.ErrInvalid, verb, item.Status))
		return
	}
	if err := sqlite.UpdateBacklogStatus(a.db, item.ID, next); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("backlog_items", domain.OpUpdate, item.ID)
	a.respondBacklog(w, item.ID)
}

func (a *api) respondBacklog(w http.ResponseWriter, id string) {
	item, err := sqlite.GetBacklogItem(a.db, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
