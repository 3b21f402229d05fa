package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/integrations/llm"
)

type assistantRequest struct {
	Prompt   string `json:"prompt"`
	ClientID string `json:"client_id"`
}

// assist proxies one prompt to the configured provider and streams the
// answer back as server-sent events. Request problems are reported as JSON
// before the stream starts; provider failures arrive as an error event
// followed by the terminator.
func (a *api) assist(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil {
		writeDomainError(w, a.log, errAssistantDisabled)
		return
	}
	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, a.log, err)
		return
	}
	if err := required("prompt", req.Prompt); err != nil {
		writeDomainError(w, a.log, err)
		return
	}

	var bundle *dashboard.ClientStatusBundle
	if req.ClientID != "" {
		b, err := a.dash.ClientStatus(r.Context(), req.ClientID, dashboard.MonthFilter(a.now(), a.loc()))
		if err != nil {
			writeDomainError(w, a.log, err)
			return
		}
		bundle = &b
	}

	sse := llm.NewSSEWriter(w)
	w.WriteHeader(http.StatusOK)
	err := a.assistant.Stream(r.Context(), llm.SystemPrompt(bundle), req.Prompt, sse.Delta)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		a.log.Info("assistant stream cancelled by client")
		return
	default:
		a.log.Warn("assistant stream failed", zap.String("client_id", req.ClientID), zap.Error(err))
		_ = sse.Error(err.Error())
	}
	_ = sse.Done()
}
