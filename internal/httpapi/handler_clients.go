package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

type createClientRequest struct {
	Name string `json:"name"`
}

func (a *api) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := sqlite.ListClients(r.Context(), a.db)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(clients))
}

func (a *api) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("name", req.Name); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	c, err := sqlite.InsertClient(a.db, domain.Client{Name: req.Name, CreatedAt: a.now()})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("clients", domain.OpInsert, c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// checkClient reports a dangling client reference in a request body as
// invalid input.
func (a *api) checkClient(id string) error {
	if _, err := sqlite.GetClient(a.db, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: client %s does not exist", domain.ErrInvalid, id)
		}
		return err
	}
	return nil
}

func (a *api) clientStatus(w http.ResponseWriter, r *http.Request) {
	f, err := a.dashboardFilter(r)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	bundle, err := a.dash.ClientStatus(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}
