package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

type createSprintRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (a *api) listSprints(w http.ResponseWriter, r *http.Request) {
	sprints, err := sqlite.ListSprints(r.Context(), a.db)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sprints))
}

func (a *api) createSprint(w http.ResponseWriter, r *http.Request) {
	var req createSprintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("name", req.Name); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	start, err := parseTime("start_date", req.StartDate, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	end, err := parseTime("end_date", req.EndDate, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	s, err := sqlite.InsertSprint(a.db, domain.Sprint{Name: req.Name, StartDate: start, EndDate: end, CreatedAt: a.now()})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("sprints", domain.OpInsert, s.ID)
	writeJSON(w, http.StatusCreated, s)
}

func (a *api) deleteSprint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteSprint(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("sprints", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

type createSprintTaskRequest struct {
	BacklogItemID string `json:"backlog_item_id"`
	Responsible   string `json:"responsible"`
	Status        string `json:"status"`
}

func (a *api) listSprintTasks(w http.ResponseWriter, r *http.Request) {
	s, err := sqlite.GetSprint(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	tasks, err := sqlite.ListSprintTasks(r.Context(), a.db, s.ID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// createSprintTask plans a backlog item into the sprint. Linking the same
// item twice is rejected by the unique constraint.
func (a *api) createSprintTask(w http.ResponseWriter, r *http.Request) {
	var req createSprintTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("backlog_item_id", req.BacklogItemID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	s, err := sqlite.GetSprint(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	st := domain.SprintTask{
		SprintID:      s.ID,
		BacklogItemID: req.BacklogItemID,
		Responsible:   req.Responsible,
		CreatedAt:     a.now(),
	}
	if req.Status != "" {
		if st.Status, err = domain.ParseItemStatus(req.Status); err != nil {
			writeDomainError(w, a.log, err)
			return
		}
	}

	st, err = sqlite.InsertSprintTask(a.db, st)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("sprint_tasks", domain.OpInsert, st.ID)
	writeJSON(w, http.StatusCreated, st)
}

func (a *api) deleteSprintTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteSprintTask(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("sprint_tasks", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

type subtaskRequest struct {
	Title       string  `json:"title"`
	Responsible string  `json:"responsible"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Status      string  `json:"status"`
}

func (a *api) applySubtask(req subtaskRequest, st *domain.Subtask) error {
	if err := required("title", req.Title); err != nil {
		return err
	}
	start, err := optionalTime("start_date", req.StartDate, a.loc())
	if err != nil {
		return err
	}
	end, err := optionalTime("end_date", req.EndDate, a.loc())
	if err != nil {
		return err
	}
	if req.Status != "" {
		if st.Status, err = domain.ParseItemStatus(req.Status); err != nil {
			return err
		}
	}
	st.Title = req.Title
	st.Responsible = req.Responsible
	st.StartDate = start
	st.EndDate = end
	return nil
}

func (a *api) listSubtasks(w http.ResponseWriter, r *http.Request) {
	st, err := sqlite.GetSprintTask(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	subtasks, err := sqlite.ListSubtasks(r.Context(), a.db, st.ID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(subtasks))
}

func (a *api) createSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	parent, err := sqlite.GetSprintTask(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	sub := domain.Subtask{SprintTaskID: parent.ID, CreatedAt: a.now()}
	if err := a.applySubtask(req, &sub); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	sub, err = sqlite.InsertSubtask(a.db, sub)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("subtasks", domain.OpInsert, sub.ID)
	writeJSON(w, http.StatusCreated, sub)
}

func (a *api) updateSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	sub, err := sqlite.GetSubtask(a.db, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.applySubtask(req, &sub); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := sqlite.UpdateSubtask(a.db, sub); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("subtasks", domain.OpUpdate, sub.ID)
	sub, err = sqlite.GetSubtask(a.db, sub.ID)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *api) deleteSubtask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteSubtask(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("subtasks", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
