package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

// checkSprint loads a sprint referenced from a request body. A missing sprint
// is bad input, not a missing route.
func (a *api) checkSprint(id string) (domain.Sprint, error) {
	s, err := sqlite.GetSprint(a.db, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Sprint{}, fmt.Errorf("%w: sprint %s does not exist", domain.ErrInvalid, id)
	}
	return s, err
}

type createDailyRequest struct {
	SprintID    string `json:"sprint_id"`
	Day         string `json:"day"`
	Participant string `json:"participant"`
	Yesterday   string `json:"yesterday"`
	Today       string `json:"today"`
	Blockers    string `json:"blockers"`
}

type updateDailyRequest struct {
	Yesterday string `json:"yesterday"`
	Today     string `json:"today"`
	Blockers  string `json:"blockers"`
}

// listDailies filters by ?sprint_id and, with ?blocked=true, keeps only the
// updates that raised a blocker.
func (a *api) listDailies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dailies, err := sqlite.ListDailies(r.Context(), a.db, q.Get("sprint_id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if q.Get("blocked") == "true" {
		blocked := dailies[:0]
		for _, d := range dailies {
			if d.Blocked() {
				blocked = append(blocked, d)
			}
		}
		dailies = blocked
	}
	writeJSON(w, http.StatusOK, nonNil(dailies))
}

// createDaily records a stand-up update. The day must fall within the
// sprint, compared by calendar day.
func (a *api) createDaily(w http.ResponseWriter, r *http.Request) {
	var req createDailyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("sprint_id", req.SprintID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("participant", req.Participant); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	day, err := parseTime("day", req.Day, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	day = domain.DayOf(day, a.loc())
	s, err := a.checkSprint(req.SprintID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if day.Before(domain.DayOf(s.StartDate, a.loc())) || day.After(domain.DayOf(s.EndDate, a.loc())) {
		writeDomainError(w, a.log, fmt.Errorf("%w: day %s is outside sprint %s", domain.ErrInvalid, req.Day, s.Name))
		return
	}

	d, err := sqlite.InsertDaily(a.db, domain.Daily{
		SprintID:    s.ID,
		Day:         day,
		Participant: req.Participant,
		Yesterday:   req.Yesterday,
		Today:       req.Today,
		Blockers:    req.Blockers,
		CreatedAt:   a.now(),
	})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("dailies", domain.OpInsert, d.ID)
	writeJSON(w, http.StatusCreated, d)
}

func (a *api) updateDaily(w http.ResponseWriter, r *http.Request) {
	var req updateDailyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	d, err := sqlite.GetDaily(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	d.Yesterday, d.Today, d.Blockers = req.Yesterday, req.Today, req.Blockers
	if err := sqlite.UpdateDaily(a.db, d); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("dailies", domain.OpUpdate, d.ID)
	writeJSON(w, http.StatusOK, d)
}

func (a *api) deleteDaily(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteDaily(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("dailies", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

type retroRequest struct {
	SprintID string `json:"sprint_id"` // ignored on update
	Category string `json:"category"`
	Content  string `json:"content"`
	Author   string `json:"author"`
}

func (req retroRequest) apply(it *domain.RetroItem) error {
	if err := required("content", req.Content); err != nil {
		return err
	}
	c, err := domain.ParseRetroCategory(req.Category)
	if err != nil {
		return err
	}
	it.Category = c
	it.Content = req.Content
	it.Author = req.Author
	return nil
}

func (a *api) listRetroItems(w http.ResponseWriter, r *http.Request) {
	items, err := sqlite.ListRetroItems(r.Context(), a.db, r.URL.Query().Get("sprint_id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (a *api) createRetroItem(w http.ResponseWriter, r *http.Request) {
	var req retroRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("sprint_id", req.SprintID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	it := domain.RetroItem{CreatedAt: a.now()}
	if err := req.apply(&it); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	s, err := a.checkSprint(req.SprintID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	it.SprintID = s.ID

	it, err = sqlite.InsertRetroItem(a.db, it)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("retro_items", domain.OpInsert, it.ID)
	writeJSON(w, http.StatusCreated, it)
}

func (a *api) updateRetroItem(w http.ResponseWriter, r *http.Request) {
	var req retroRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	it, err := sqlite.GetRetroItem(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := req.apply(&it); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := sqlite.UpdateRetroItem(a.db, it); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("retro_items", domain.OpUpdate, it.ID)
	writeJSON(w, http.StatusOK, it)
}

func (a *api) voteRetroItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.VoteRetroItem(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("retro_items", domain.OpUpdate, id)
	it, err := sqlite.GetRetroItem(a.db, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *api) deleteRetroItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteRetroItem(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("retro_items", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
