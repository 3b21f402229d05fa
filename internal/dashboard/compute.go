package dashboard

import (
	"time"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/status"
)

// ClientStatusBundle is one client's four metric results and their
// aggregate.
type ClientStatusBundle struct {
	Client       domain.Client                   `json:"client"`
	Lights       status.Lights                   `json:"lights"`
	Overall      status.Light                    `json:"overall"`
	Methodology  status.MethodologyResult        `json:"methodology"`
	Priorities   status.PrioritiesResult         `json:"priorities"`
	Productivity status.ProductivityResult       `json:"productivity"`
	Risk         status.RiskResult               `json:"risk"`
	Explanations map[status.Dimension]string     `json:"explanations"`
	ListNames    map[string]string               `json:"list_names,omitempty"`
	Summaries    map[string]domain.SummaryRollup `json:"summaries,omitempty"` // keyed by summary row id
}

// PortfolioDimension is one metric rolled up across clients.
type PortfolioDimension struct {
	Dimension   status.Dimension    `json:"dimension"`
	Result      status.RollupResult `json:"result"`
	Explanation string              `json:"explanation"`
}

type Dashboard struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Clients     []ClientStatusBundle `json:"clients"`
	Portfolio   []PortfolioDimension `json:"portfolio"`
}

// Compute runs every classifier for every client in snap.
func Compute(snap Snapshot, f Filter, now time.Time, loc *time.Location) Dashboard {
	d := Dashboard{GeneratedAt: now}
	for _, c := range snap.Clients {
		d.Clients = append(d.Clients, ComputeClient(snap, c, f, now, loc))
	}

	for _, dim := range status.Dimensions {
		lights := make([]status.Light, 0, len(d.Clients))
		for _, b := range d.Clients {
			lights = append(lights, b.Lights.Get(dim))
		}
		r := status.Rollup(lights)
		d.Portfolio = append(d.Portfolio, PortfolioDimension{
			Dimension:   dim,
			Result:      r,
			Explanation: status.ExplainRollup(dim, r),
		})
	}
	return d
}

// ComputeClient runs the four classifiers for one client.
func ComputeClient(snap Snapshot, c domain.Client, f Filter, now time.Time, loc *time.Location) ClientStatusBundle {
	b := ClientStatusBundle{Client: c}

	scope := status.MethodologyScope(c.ID, snap.Items, snap.Links, snap.Sprints, f.Period)
	b.Methodology = status.ClassifyMethodology(scope, f.Period, now)

	tasksByList := make(map[string][]domain.ScheduleTask)
	for _, t := range snap.ScheduleTasks {
		tasksByList[t.ListID] = append(tasksByList[t.ListID], t)
	}
	var lists []status.ScheduleListResult
	for _, l := range snap.Lists {
		if l.ClientID != c.ID {
			continue
		}
		if b.ListNames == nil {
			b.ListNames = make(map[string]string)
			b.Summaries = make(map[string]domain.SummaryRollup)
		}
		b.ListNames[l.ID] = l.Name
		for id, s := range domain.RollupSummaries(tasksByList[l.ID]) {
			b.Summaries[id] = s
		}
		lists = append(lists, status.ClassifyScheduleList(l.ID, tasksByList[l.ID], now, loc))
	}
	b.Priorities = status.ClassifyClientPriorities(lists)

	var snaps []domain.ProductivitySnapshot
	for _, p := range snap.Productivity {
		if p.ClientID == c.ID {
			snaps = append(snaps, p)
		}
	}
	b.Productivity = status.ClassifyProductivity(snaps, f.Range)

	var risks []domain.RiskRecord
	for _, r := range snap.Risks {
		if r.ClientID == c.ID {
			risks = append(risks, r)
		}
	}
	b.Risk = status.ClassifyRisks(risks, f.Range)

	b.Lights = status.Lights{
		Methodology:  b.Methodology.Light,
		Priorities:   b.Priorities.Light,
		Productivity: b.Productivity.Light,
		Risk:         b.Risk.Light,
	}
	b.Overall = status.Overall(b.Lights)
	b.Explanations = map[status.Dimension]string{
		status.DimMethodology:  status.ExplainMethodology(b.Methodology),
		status.DimPriorities:   status.ExplainPriorities(b.Priorities),
		status.DimProductivity: status.ExplainProductivity(b.Productivity),
		status.DimRisk:         status.ExplainRisks(b.Risk),
	}
	return b
}
