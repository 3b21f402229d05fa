package httpapi

import (
	"fmt"
	"net/http"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/domain"
	"scrumtrack/internal/status"
)

// dashboardFilter reads period_start/period_end (both or neither) and the
// optional from/to range.
func (a *api) dashboardFilter(r *http.Request) (dashboard.Filter, error) {
	var f dashboard.Filter
	q := r.URL.Query()

	ps, pe := q.Get("period_start"), q.Get("period_end")
	switch {
	case ps != "" && pe != "":
		start, err := parseTime("period_start", ps, a.loc())
		if err != nil {
			return f, err
		}
		end, err := parseUpperBound("period_end", pe, a.loc())
		if err != nil {
			return f, err
		}
		if end.Before(start) {
			return f, fmt.Errorf("%w: period_end is before period_start", domain.ErrInvalid)
		}
		f.Period = &status.Period{Start: start, End: end}
	case ps != "" || pe != "":
		return f, fmt.Errorf("%w: period_start and period_end must be given together", domain.ErrInvalid)
	}

	from, to, err := queryRange(r, a.loc())
	if err != nil {
		return f, err
	}
	if from != nil || to != nil {
		f.Range = &status.DateRange{}
		if from != nil {
			f.Range.From = *from
		}
		if to != nil {
			f.Range.To = *to
		}
	}
	return f, nil
}

func (a *api) getDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := a.dashboardFilter(r)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	d, err := a.dash.Dashboard(r.Context(), f)
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	d.Clients = nonNil(d.Clients)
	writeJSON(w, http.StatusOK, d)
}

func (a *api) getRoadmap(w http.ResponseWriter, r *http.Request) {
	entries, err := a.dash.Roadmap(r.Context())
	if err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}
