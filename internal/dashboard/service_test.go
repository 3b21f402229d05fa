package dashboard

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrumtrack/internal/domain"
	"scrumtrack/internal/status"
	"scrumtrack/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	acme  domain.Client
	beta  domain.Client
	gamma domain.Client
	item  domain.BacklogItem
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var f fixture
	f.svc = NewService(db, domain.FixedClock(fixedNow), time.UTC)

	f.acme, err = sqlite.InsertClient(db, domain.Client{Name: "Acme"})
	require.NoError(t, err)
	f.beta, err = sqlite.InsertClient(db, domain.Client{Name: "Beta"})
	require.NoError(t, err)
	f.gamma, err = sqlite.InsertClient(db, domain.Client{Name: "Gamma"})
	require.NoError(t, err)

	// Acme: delivered client work in a March sprint, an overdue schedule
	// task and an open risk.
	sprint, err := sqlite.InsertSprint(db, domain.Sprint{
		Name:      "March",
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	f.item, err = sqlite.InsertBacklogItem(db, domain.BacklogItem{
		Title:    "Checkout",
		ClientID: f.acme.ID,
		TaskType: domain.TaskTypeClient,
		Status:   domain.StatusDone,
	})
	require.NoError(t, err)
	_, err = sqlite.InsertSprintTask(db, domain.SprintTask{SprintID: sprint.ID, BacklogItemID: f.item.ID})
	require.NoError(t, err)

	list, err := sqlite.InsertScheduleList(db, domain.ScheduleList{ClientID: f.acme.ID, Name: "Launch"})
	require.NoError(t, err)
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = sqlite.InsertScheduleTask(db, domain.ScheduleTask{ListID: list.ID, Title: "Go live", EndAt: &due})
	require.NoError(t, err)

	_, err = sqlite.InsertRisk(db, domain.RiskRecord{
		ClientID: f.acme.ID, Title: "Vendor delay", Probability: 3, Impact: 3,
		IdentifiedAt: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Beta: healthy productivity and a mitigated risk.
	_, err = sqlite.InsertProductivitySnapshot(db, domain.ProductivitySnapshot{
		ClientID:    f.beta.ID,
		PeriodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Opened:      100, Closed: 95, Backlog: 5,
	})
	require.NoError(t, err)
	_, err = sqlite.InsertRisk(db, domain.RiskRecord{
		ClientID: f.beta.ID, Title: "Scope creep", Status: domain.RiskMitigated, Probability: 2, Impact: 2,
		IdentifiedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return f
}

func bundleFor(t *testing.T, d Dashboard, clientID string) ClientStatusBundle {
	t.Helper()
	for _, b := range d.Clients {
		if b.Client.ID == clientID {
			return b
		}
	}
	t.Fatalf("client %s missing from dashboard", clientID)
	return ClientStatusBundle{}
}

func TestDashboardComputesEveryClient(t *testing.T) {
	f := newFixture(t)
	period := &status.Period{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	d, err := f.svc.Dashboard(context.Background(), Filter{Period: period})
	require.NoError(t, err)
	require.Len(t, d.Clients, 3)
	assert.True(t, d.GeneratedAt.Equal(fixedNow))

	acme := bundleFor(t, d, f.acme.ID)
	assert.Equal(t, status.Green, acme.Methodology.Light)
	assert.Equal(t, 1, acme.Methodology.Total)
	assert.Equal(t, status.Red, acme.Priorities.Light)
	assert.Equal(t, status.Gray, acme.Productivity.Light)
	assert.Equal(t, status.Red, acme.Risk.Light)
	assert.Equal(t, status.Red, acme.Overall)
	assert.Equal(t, "Launch", acme.ListNames[acme.Priorities.Lists[0].ListID])
	assert.Equal(t, "1 open risk(s) (1 total: 1 open, 0 in mitigation, 0 mitigated, 0 materialized)", acme.Explanations[status.DimRisk])

	beta := bundleFor(t, d, f.beta.ID)
	assert.Equal(t, status.Lights{
		Methodology:  status.Gray,
		Priorities:   status.Gray,
		Productivity: status.Green,
		Risk:         status.Green,
	}, beta.Lights)
	assert.Equal(t, status.Green, beta.Overall)

	gamma := bundleFor(t, d, f.gamma.ID)
	assert.Equal(t, status.Gray, gamma.Overall)

	require.Len(t, d.Portfolio, 4)
	byDim := make(map[status.Dimension]status.RollupResult)
	for _, p := range d.Portfolio {
		byDim[p.Dimension] = p.Result
	}
	// Risk: one red, one green, one unmeasured.
	assert.Equal(t, 2, byDim[status.DimRisk].Measured)
	assert.Equal(t, status.Red, byDim[status.DimRisk].Light)
	assert.Equal(t, 1, byDim[status.DimProductivity].Measured)
	assert.Equal(t, status.Green, byDim[status.DimProductivity].Light)
}

func TestDashboardRangeFiltersRisksAndProductivity(t *testing.T) {
	f := newFixture(t)
	rng := &status.DateRange{From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	d, err := f.svc.Dashboard(context.Background(), Filter{Range: rng})
	require.NoError(t, err)

	beta := bundleFor(t, d, f.beta.ID)
	assert.Equal(t, status.Gray, beta.Productivity.Light, "february snapshot falls outside the range")
	assert.Equal(t, status.Gray, beta.Risk.Light)
	assert.Equal(t, status.Red, bundleFor(t, d, f.acme.ID).Risk.Light)
}

func TestClientStatus(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.ClientStatus(context.Background(), f.acme.ID, Filter{})
	require.NoError(t, err)
	assert.Equal(t, "Acme", b.Client.Name)
	assert.Equal(t, status.Gray, b.Methodology.Light, "no period selected")

	_, err = f.svc.ClientStatus(context.Background(), "missing", Filter{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoadmap(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.Roadmap(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.item.ID, entries[0].Item.ID)
	assert.Equal(t, status.Delivered, entries[0].State)
	require.NotNil(t, entries[0].SprintEnd)

	out := RenderRoadmap(entries)
	assert.Contains(t, out, "#### delivered")
	assert.Contains(t, out, "- Checkout (size 0, sprint ends 2026-03-13)")
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderMarkdownOrdersWorstFirst(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Dashboard(context.Background(), Filter{})
	require.NoError(t, err)

	out := RenderMarkdown(d)
	assert.True(t, strings.HasPrefix(out, "#### Client status (2026-03-15)"))
	acme := strings.Index(out, "**Acme** (Critical)")
	beta := strings.Index(out, "**Beta** (On track)")
	gamma := strings.Index(out, "**Gamma** (No data)")
	require.NotEqual(t, -1, acme)
	require.NotEqual(t, -1, beta)
	require.NotEqual(t, -1, gamma)
	assert.Less(t, acme, beta)
	assert.Less(t, beta, gamma)
	assert.Contains(t, out, "risk: 1 open risk(s)")
	assert.Contains(t, out, "    - :red_circle: Launch: 1 overdue of 1 task(s) (100.0%), worst 14 day(s) late")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderRoadmapEmpty(t *testing.T) {
	assert.Equal(t, "No backlog items.\n", RenderRoadmap(nil))
}

func TestMonthFilter(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	// 01:00 UTC on April 1st is still March 31st at UTC-3.
	f := MonthFilter(time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC), loc)
	require.NotNil(t, f.Period)
	assert.Nil(t, f.Range)
	assert.True(t, f.Period.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)))
	assert.True(t, f.Period.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)))
}
