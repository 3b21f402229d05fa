package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/storage/sqlite"
)

type createProductivityRequest struct {
	ClientID       string `json:"client_id"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Opened         int    `json:"opened"`
	Closed         int    `json:"closed"`
	Backlog        int    `json:"backlog"`
	OpenOver15Days int    `json:"open_over_15_days"`
}

func (a *api) listProductivity(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	snaps, err := sqlite.ListProductivitySnapshots(r.Context(), a.db, r.URL.Query().Get("client_id"), from, to)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snaps))
}

func (a *api) createProductivity(w http.ResponseWriter, r *http.Request) {
	var req createProductivityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("client_id", req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.checkClient(req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	start, err := parseTime("period_start", req.PeriodStart, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	end, err := parseTime("period_end", req.PeriodEnd, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	p, err := sqlite.InsertProductivitySnapshot(a.db, domain.ProductivitySnapshot{
		ClientID:       req.ClientID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Opened:         req.Opened,
		Closed:         req.Closed,
		Backlog:        req.Backlog,
		OpenOver15Days: req.OpenOver15Days,
		CreatedAt:      a.now(),
	})
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("productivity_snapshots", domain.OpInsert, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

type createRiskRequest struct {
	ClientID     string  `json:"client_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Probability  int     `json:"probability"`
	Impact       int     `json:"impact"`
	IdentifiedAt *string `json:"identified_at"`
}

type updateRiskRequest struct {
	Status string `json:"status"`
}

// riskResponse adds the derived severity to a stored risk.
type riskResponse struct {
	domain.RiskRecord
	Severity      int    `json:"severity"`
	SeverityLabel string `json:"severity_label"`
}

func newRiskResponse(r domain.RiskRecord) riskResponse {
	return riskResponse{RiskRecord: r, Severity: r.Severity(), SeverityLabel: r.SeverityLabel()}
}

func (a *api) listRisks(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	risks, err := sqlite.ListRisks(r.Context(), a.db, r.URL.Query().Get("client_id"), from, to)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	out := make([]riskResponse, 0, len(risks))
	for _, risk := range risks {
		out = append(out, newRiskResponse(risk))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) createRisk(w http.ResponseWriter, r *http.Request) {
	var req createRiskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("client_id", req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("title", req.Title); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := a.checkClient(req.ClientID); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	risk := domain.RiskRecord{
		ClientID:    req.ClientID,
		Title:       req.Title,
		Probability: req.Probability,
		Impact:      req.Impact,
		CreatedAt:   a.now(),
	}
	if req.Status != "" {
		st, err := domain.ParseRiskStatus(req.Status)
		if err != nil {
			writeDomainError(w, a.log, err)
			return
		}
		risk.Status = st
	}
	identified, err := optionalTime("identified_at", req.IdentifiedAt, a.loc())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if identified != nil {
		risk.IdentifiedAt = *identified
	}

	risk, err = sqlite.InsertRisk(a.db, risk)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("risks", domain.OpInsert, risk.ID)
	writeJSON(w, http.StatusCreated, newRiskResponse(risk))
}

// updateRisk moves a risk to another status; other fields are fixed once
// recorded.
func (a *api) updateRisk(w http.ResponseWriter, r *http.Request) {
	var req updateRiskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	st, err := domain.ParseRiskStatus(req.Status)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := sqlite.UpdateRiskStatus(a.db, id, st); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("risks", domain.OpUpdate, id)
	risk, err := sqlite.GetRisk(a.db, id)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newRiskResponse(risk))
}

func (a *api) deleteRisk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := sqlite.DeleteRisk(a.db, id); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	a.publish("risks", domain.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
