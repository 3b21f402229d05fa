package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/domain"
	"scrumtrack/internal/integrations/llm"
	"scrumtrack/internal/realtime"
	"scrumtrack/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeStreamer struct {
	mu      sync.Mutex
	deltas  []string
	err     error
	systems []string
}

func (f *fakeStreamer) Stream(_ context.Context, system, _ string, fn func(string) error) error {
	f.mu.Lock()
	f.systems = append(f.systems, system)
	deltas, err := f.deltas, f.err
	f.mu.Unlock()

	for _, d := range deltas {
		if err := fn(d); err != nil {
			return err
		}
	}
	return err
}

func (f *fakeStreamer) lastSystem() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.systems) == 0 {
		return ""
	}
	return f.systems[len(f.systems)-1]
}

type testEnv struct {
	srv *httptest.Server
	db  *sql.DB
	hub *realtime.Hub
	llm *fakeStreamer
}

func newTestEnv(t *testing.T, assistant bool) *testEnv {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, hub: realtime.NewHub(zap.NewNop(), 16), llm: &fakeStreamer{}}
	t.Cleanup(env.hub.Close)

	deps := Deps{
		DB:        db,
		Dashboard: dashboard.NewService(db, domain.FixedClock(fixedNow), time.UTC),
		Hub:       env.hub,
		Log:       zap.NewNop(),
	}
	if assistant {
		deps.Assistant = env.llm
	}
	env.srv = httptest.NewServer(NewRouter(deps))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// create posts body and decodes the 201 response into out.
func (e *testEnv) create(t *testing.T, path string, body, out any) {
	t.Helper()
	code, raw := e.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, out))
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	code, raw := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	env := newTestEnv(t, false)
	code, raw := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, errorCode(t, raw))
}

func TestClients(t *testing.T) {
	env := newTestEnv(t, false)

	code, raw := env.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Acme", c.Name)
	assert.True(t, c.CreatedAt.Equal(fixedNow))

	code, raw = env.do(t, http.MethodPost, "/api/clients", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, "/api/clients", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, "/api/clients", `{"name":"x","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, code, "unknown fields are rejected")
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	var clients []domain.Client
	code, raw = env.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, c.ID, clients[0].ID)
}

func TestBacklogWorkflow(t *testing.T) {
	env := newTestEnv(t, false)
	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)

	var item domain.BacklogItem
	env.create(t, "/api/backlog", map[string]any{
		"title": "Login page", "client_id": c.ID, "task_type": "client", "story_points": 3,
	}, &item)
	assert.Equal(t, domain.StatusTodo, item.Status)
	assert.Equal(t, domain.PriorityMedium, item.Priority)

	path := "/api/backlog/" + item.ID
	for _, want := range []domain.ItemStatus{domain.StatusDoing, domain.StatusDone, domain.StatusValidated} {
		code, raw := env.do(t, http.MethodPost, path+"/advance", nil)
		require.Equal(t, http.StatusOK, code, string(raw))
		var got domain.BacklogItem
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, want, got.Status)
	}
	code, raw := env.do(t, http.MethodPost, path+"/advance", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, path+"/retreat", nil)
	require.Equal(t, http.StatusOK, code)
	var got domain.BacklogItem
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, domain.StatusDone, got.Status)

	code, raw = env.do(t, http.MethodPut, path, map[string]any{
		"title": "Login page v2", "client_id": c.ID, "priority": "high", "story_points": 5,
	})
	require.Equal(t, http.StatusOK, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Login page v2", got.Title)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, domain.StatusDone, got.Status, "an empty status keeps the current one")

	var items []domain.BacklogItem
	code, raw = env.do(t, http.MethodGet, "/api/backlog?client_id="+c.ID, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &items))
	assert.Len(t, items, 1)

	code, _ = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, raw = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, errorCode(t, raw))
}

func TestBacklogValidation(t *testing.T) {
	env := newTestEnv(t, false)
	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"title": ""}},
		{name: "unknown client", body: map[string]any{"title": "x", "client_id": "missing"}},
		{name: "bad status", body: map[string]any{"title": "x", "status": "blocked"}},
		{name: "bad priority", body: map[string]any{"title": "x", "priority": "urgent"}},
		{name: "negative points", body: map[string]any{"title": "x", "story_points": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, raw := env.do(t, http.MethodPost, "/api/backlog", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, CodeInvalid, errorCode(t, raw))
		})
	}
}

func TestSprintsTasksAndSubtasks(t *testing.T) {
	env := newTestEnv(t, false)
	var item domain.BacklogItem
	env.create(t, "/api/backlog", map[string]any{"title": "Checkout"}, &item)

	code, raw := env.do(t, http.MethodPost, "/api/sprints", map[string]string{
		"name": "S1", "start_date": "2026-03-20", "end_date": "2026-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, code, "end before start")
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	var sprint domain.Sprint
	env.create(t, "/api/sprints", map[string]string{
		"name": "S1", "start_date": "2026-03-02", "end_date": "2026-03-20",
	}, &sprint)
	assert.True(t, sprint.StartDate.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))

	var link domain.SprintTask
	env.create(t, "/api/sprints/"+sprint.ID+"/tasks", map[string]string{
		"backlog_item_id": item.ID, "responsible": "ana",
	}, &link)
	assert.Equal(t, domain.StatusTodo, link.Status)

	code, raw = env.do(t, http.MethodPost, "/api/sprints/"+sprint.ID+"/tasks", map[string]string{"backlog_item_id": item.ID})
	assert.Equal(t, http.StatusBadRequest, code, "duplicate link")
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, "/api/sprints/"+sprint.ID+"/tasks", map[string]string{"backlog_item_id": "missing"})
	assert.Equal(t, http.StatusBadRequest, code, "dangling backlog item")
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, _ = env.do(t, http.MethodPost, "/api/sprints/missing/tasks", map[string]string{"backlog_item_id": item.ID})
	assert.Equal(t, http.StatusNotFound, code)

	var sub domain.Subtask
	env.create(t, "/api/sprint-tasks/"+link.ID+"/subtasks", map[string]any{
		"title": "API", "start_date": "2026-03-03", "end_date": "2026-03-05",
	}, &sub)
	require.NotNil(t, sub.EndDate)
	assert.True(t, sub.EndDate.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))

	code, raw = env.do(t, http.MethodPut, "/api/subtasks/"+sub.ID, map[string]any{"title": "API", "status": "done"})
	require.Equal(t, http.StatusOK, code, string(raw))
	var updated domain.Subtask
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Nil(t, updated.EndDate, "omitted dates are cleared")

	var subs []domain.Subtask
	code, raw = env.do(t, http.MethodGet, "/api/sprint-tasks/"+link.ID+"/subtasks", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &subs))
	assert.Len(t, subs, 1)

	code, _ = env.do(t, http.MethodDelete, "/api/sprints/"+sprint.ID, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = env.do(t, http.MethodGet, "/api/sprint-tasks/"+link.ID+"/subtasks", nil)
	assert.Equal(t, http.StatusNotFound, code, "deleting the sprint cascades to its links")
	code, _ = env.do(t, http.MethodDelete, "/api/subtasks/"+sub.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestScheduleTasks(t *testing.T) {
	env := newTestEnv(t, false)
	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)

	code, _ := env.do(t, http.MethodPost, "/api/schedule-lists", map[string]string{"client_id": "missing", "name": "Q1"})
	assert.Equal(t, http.StatusBadRequest, code)

	var list, other domain.ScheduleList
	env.create(t, "/api/schedule-lists", map[string]string{"client_id": c.ID, "name": "Q1"}, &list)
	env.create(t, "/api/schedule-lists", map[string]string{"client_id": c.ID, "name": "Q2"}, &other)

	var parent, child domain.ScheduleTask
	env.create(t, "/api/schedule-lists/"+list.ID+"/tasks", map[string]any{"title": "Phase 1", "sort_order": 1}, &parent)
	assert.Equal(t, domain.ScheduleNotStarted, parent.Status)
	env.create(t, "/api/schedule-lists/"+list.ID+"/tasks", map[string]any{
		"title": "Design", "parent_id": parent.ID, "status": "in_progress",
		"start_at": "2026-03-01", "end_at": "2026-03-10", "sort_order": 2,
	}, &child)

	code, raw := env.do(t, http.MethodPost, "/api/schedule-lists/"+other.ID+"/tasks", map[string]any{"title": "x", "parent_id": parent.ID})
	assert.Equal(t, http.StatusBadRequest, code, "parent from another list")
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, _ = env.do(t, http.MethodPut, "/api/schedule-tasks/"+parent.ID, map[string]any{"title": "Phase 1", "parent_id": parent.ID})
	assert.Equal(t, http.StatusBadRequest, code, "self parent")

	code, raw = env.do(t, http.MethodPut, "/api/schedule-tasks/"+child.ID, map[string]any{
		"title": "Design", "parent_id": parent.ID, "status": "completed", "sort_order": 2,
	})
	require.Equal(t, http.StatusOK, code, string(raw))
	var got domain.ScheduleTask
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, domain.ScheduleCompleted, got.Status)

	var tasks []domain.ScheduleTask
	code, raw = env.do(t, http.MethodGet, "/api/schedule-lists/"+list.ID+"/tasks", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, parent.ID, tasks[0].ID)

	code, _ = env.do(t, http.MethodDelete, "/api/schedule-tasks/"+child.ID, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestProductivityAndRiskFilters(t *testing.T) {
	env := newTestEnv(t, false)
	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)

	var snap domain.ProductivitySnapshot
	env.create(t, "/api/productivity", map[string]any{
		"client_id": c.ID, "period_start": "2026-01-01", "period_end": "2026-01-31",
		"opened": 10, "closed": 8, "backlog": 2,
	}, &snap)
	env.create(t, "/api/productivity", map[string]any{
		"client_id": c.ID, "period_start": "2026-02-01", "period_end": "2026-02-28",
		"opened": 10, "closed": 9, "backlog": 1,
	}, &snap)

	code, raw := env.do(t, http.MethodPost, "/api/productivity", map[string]any{
		"client_id": c.ID, "period_start": "2026-02-01", "period_end": "2026-02-28", "opened": -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	var snaps []domain.ProductivitySnapshot
	code, raw = env.do(t, http.MethodGet, "/api/productivity?client_id="+c.ID+"&from=2026-02-01&to=2026-02-28", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, 9, snaps[0].Closed)

	code, _ = env.do(t, http.MethodGet, "/api/productivity?from=2026-03-01&to=2026-02-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var risk domain.RiskRecord
	env.create(t, "/api/risks", map[string]any{
		"client_id": c.ID, "title": "Vendor delay", "probability": 4, "impact": 5, "identified_at": "2026-03-10",
	}, &risk)
	assert.Equal(t, domain.RiskOpen, risk.Status)

	code, _ = env.do(t, http.MethodPost, "/api/risks", map[string]any{
		"client_id": c.ID, "title": "Bad", "probability": 6, "impact": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, raw = env.do(t, http.MethodPut, "/api/risks/"+risk.ID, map[string]string{"status": "in mitigation"})
	require.Equal(t, http.StatusOK, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, &risk))
	assert.Equal(t, domain.RiskInMitigation, risk.Status)

	var risks []riskResponse
	code, raw = env.do(t, http.MethodGet, "/api/risks?to=2026-03-09", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &risks))
	assert.Empty(t, risks)
	code, raw = env.do(t, http.MethodGet, "/api/risks?to=2026-03-10", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &risks))
	require.Len(t, risks, 1, "a date-only upper bound covers the whole day")
	assert.Equal(t, 20, risks[0].Severity)
	assert.Equal(t, "critical", risks[0].SeverityLabel)

	code, _ = env.do(t, http.MethodDelete, "/api/risks/"+risk.ID, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = env.do(t, http.MethodDelete, "/api/risks/"+risk.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDailiesAndRetrospectives(t *testing.T) {
	env := newTestEnv(t, false)
	changes, cancel := env.hub.Subscribe()
	defer cancel()

	var sprint domain.Sprint
	env.create(t, "/api/sprints", map[string]string{
		"name": "Sprint 5", "start_date": "2026-03-09", "end_date": "2026-03-20",
	}, &sprint)
	<-changes

	var daily domain.Daily
	env.create(t, "/api/dailies", map[string]string{
		"sprint_id": sprint.ID, "day": "2026-03-10", "participant": "ana", "today": "checkout",
	}, &daily)
	assert.True(t, daily.Day.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, domain.Change{Table: "dailies", Op: domain.OpInsert, ID: daily.ID, At: fixedNow}, <-changes)

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"same participant twice a day", map[string]string{"sprint_id": sprint.ID, "day": "2026-03-10", "participant": "ana"}, http.StatusBadRequest},
		{"day after the sprint", map[string]string{"sprint_id": sprint.ID, "day": "2026-03-21", "participant": "rui"}, http.StatusBadRequest},
		{"unknown sprint", map[string]string{"sprint_id": "missing", "day": "2026-03-10", "participant": "rui"}, http.StatusBadRequest},
		{"no participant", map[string]string{"sprint_id": sprint.ID, "day": "2026-03-10"}, http.StatusBadRequest},
		{"last sprint day", map[string]string{"sprint_id": sprint.ID, "day": "2026-03-20", "participant": "rui", "blockers": "no staging access"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, raw := env.do(t, http.MethodPost, "/api/dailies", tt.body)
			require.Equal(t, tt.code, code, string(raw))
			if code == http.StatusBadRequest {
				assert.Equal(t, CodeInvalid, errorCode(t, raw))
			}
		})
	}
	<-changes

	code, raw := env.do(t, http.MethodPut, "/api/dailies/"+daily.ID, map[string]string{"today": "payments", "blockers": "waiting on keys"})
	require.Equal(t, http.StatusOK, code, string(raw))
	<-changes

	var blocked []domain.Daily
	code, raw = env.do(t, http.MethodGet, "/api/dailies?sprint_id="+sprint.ID+"&blocked=true", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &blocked))
	require.Len(t, blocked, 2)
	assert.Equal(t, "payments", blocked[0].Today)

	var card domain.RetroItem
	env.create(t, "/api/retrospectives", map[string]string{
		"sprint_id": sprint.ID, "category": "went_well", "content": "pairing on checkout",
	}, &card)
	assert.Equal(t, domain.Change{Table: "retro_items", Op: domain.OpInsert, ID: card.ID, At: fixedNow}, <-changes)

	code, raw = env.do(t, http.MethodPost, "/api/retrospectives", map[string]string{
		"sprint_id": sprint.ID, "category": "complaints", "content": "x",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, "/api/retrospectives/"+card.ID+"/vote", nil)
	require.Equal(t, http.StatusOK, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, 1, card.Votes)
	assert.Equal(t, domain.OpUpdate, (<-changes).Op)

	code, raw = env.do(t, http.MethodPut, "/api/retrospectives/"+card.ID, map[string]string{
		"category": "action_item", "content": "keep pairing",
	})
	require.Equal(t, http.StatusOK, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, domain.RetroAction, card.Category)
	assert.Equal(t, 1, card.Votes, "editing keeps the votes")

	code, _ = env.do(t, http.MethodPost, "/api/retrospectives/missing/vote", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Deleting the sprint takes its ceremonies with it.
	code, _ = env.do(t, http.MethodDelete, "/api/sprints/"+sprint.ID, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, raw = env.do(t, http.MethodGet, "/api/retrospectives?sprint_id="+sprint.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))
	code, _ = env.do(t, http.MethodDelete, "/api/dailies/"+daily.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDashboardAndClientStatus(t *testing.T) {
	env := newTestEnv(t, false)
	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)
	var risk domain.RiskRecord
	env.create(t, "/api/risks", map[string]any{
		"client_id": c.ID, "title": "Vendor delay", "probability": 2, "impact": 2, "identified_at": "2026-03-10",
	}, &risk)

	code, raw := env.do(t, http.MethodGet, "/api/dashboard?period_start=2026-03-01&period_end=2026-03-31", nil)
	require.Equal(t, http.StatusOK, code, string(raw))
	var d struct {
		Clients []struct {
			Client  domain.Client     `json:"client"`
			Overall string            `json:"overall"`
			Lights  map[string]string `json:"lights"`
		} `json:"clients"`
		Portfolio []json.RawMessage `json:"portfolio"`
	}
	require.NoError(t, json.Unmarshal(raw, &d))
	require.Len(t, d.Clients, 1)
	assert.Equal(t, "Acme", d.Clients[0].Client.Name)
	assert.Equal(t, "red", d.Clients[0].Overall)
	assert.NotEmpty(t, d.Portfolio)

	code, raw = env.do(t, http.MethodGet, "/api/dashboard?to=2026-03-09", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.NotEqual(t, "red", d.Clients[0].Overall, "the risk falls outside the range")

	code, raw = env.do(t, http.MethodGet, "/api/dashboard?period_start=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodGet, "/api/clients/"+c.ID+"/status", nil)
	require.Equal(t, http.StatusOK, code)
	var bundle dashboard.ClientStatusBundle
	require.NoError(t, json.Unmarshal(raw, &bundle))
	assert.Equal(t, c.ID, bundle.Client.ID)
	assert.NotEmpty(t, bundle.Explanations)

	code, raw = env.do(t, http.MethodGet, "/api/clients/missing/status", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, errorCode(t, raw))
}

func TestRoadmap(t *testing.T) {
	env := newTestEnv(t, false)
	code, raw := env.do(t, http.MethodGet, "/api/roadmap", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	var item domain.BacklogItem
	env.create(t, "/api/backlog", map[string]any{"title": "Reports"}, &item)
	code, raw = env.do(t, http.MethodGet, "/api/roadmap", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "unplanned", entries[0]["state"])
}

func TestWritesPublishChanges(t *testing.T) {
	env := newTestEnv(t, false)
	changes, cancel := env.hub.Subscribe()
	defer cancel()

	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)
	code, _ := env.do(t, http.MethodPost, "/api/clients", map[string]string{"name": ""})
	require.Equal(t, http.StatusBadRequest, code)
	var item domain.BacklogItem
	env.create(t, "/api/backlog", map[string]any{"title": "x"}, &item)

	got := []domain.Change{<-changes, <-changes}
	assert.Equal(t, domain.Change{Table: "clients", Op: domain.OpInsert, ID: c.ID, At: fixedNow}, got[0])
	assert.Equal(t, "backlog_items", got[1].Table)
	assert.Equal(t, item.ID, got[1].ID)
	select {
	case extra := <-changes:
		t.Fatalf("failed write published %+v", extra)
	default:
	}
}

func TestRealtimeRouteStreamsChanges(t *testing.T) {
	env := newTestEnv(t, false)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/realtime"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var change domain.Change
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, "clients", change.Table)
	assert.Equal(t, c.ID, change.ID)
}

func TestAssistantStreamsWithClientContext(t *testing.T) {
	env := newTestEnv(t, true)
	env.llm.deltas = []string{"All ", "good."}
	var c domain.Client
	env.create(t, "/api/clients", map[string]string{"name": "Acme"}, &c)

	raw, err := json.Marshal(map[string]string{"prompt": "How is Acme?", "client_id": c.ID})
	require.NoError(t, err)
	resp, err := env.srv.Client().Post(env.srv.URL+"/api/assistant", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var out strings.Builder
	require.NoError(t, llm.ReadStream(resp.Body, func(s string) error {
		out.WriteString(s)
		return nil
	}))
	assert.Equal(t, "All good.", out.String())
	assert.Contains(t, env.llm.lastSystem(), `client "Acme"`)
}

func TestAssistantProviderFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.llm.deltas = []string{"partial"}
	env.llm.err = errors.New("upstream overloaded")

	code, raw := env.do(t, http.MethodPost, "/api/assistant", map[string]string{"prompt": "hi"})
	require.Equal(t, http.StatusOK, code)
	body := string(raw)
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, "upstream overloaded")
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"), body)

	var got []string
	err := llm.ReadStream(strings.NewReader(body), func(s string) error {
		got = append(got, s)
		return nil
	})
	var upstream *llm.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, []string{"partial"}, got)
	assert.Equal(t, llm.SystemPrompt(nil), env.llm.lastSystem())
}

func TestAssistantRequestErrors(t *testing.T) {
	env := newTestEnv(t, true)
	code, raw := env.do(t, http.MethodPost, "/api/assistant", map[string]string{"prompt": " "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalid, errorCode(t, raw))

	code, raw = env.do(t, http.MethodPost, "/api/assistant", map[string]string{"prompt": "hi", "client_id": "missing"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, errorCode(t, raw))

	disabled := newTestEnv(t, false)
	code, raw = disabled.do(t, http.MethodPost, "/api/assistant", map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, CodeUnavailable, errorCode(t, raw))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(zap.NewNop()))
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, errorCode(t, rec.Body.Bytes()))
}
