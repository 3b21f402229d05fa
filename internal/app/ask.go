package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"scrumtrack/internal/httpapi"
	"scrumtrack/internal/httpx"
	"scrumtrack/internal/integrations/llm"
)

func newAskCmd(rt *runtime) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Ask the assistant of a running server and print the streamed answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.ask(cmd, strings.Join(args, " "), clientID)
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "client id whose status is given to the assistant")
	return cmd
}

func (rt *runtime) ask(cmd *cobra.Command, prompt, clientID string) error {
	body, err := json.Marshal(map[string]string{"prompt": prompt, "client_id": clientID})
	if err != nil {
		return err
	}
	url := strings.TrimRight(rt.cfg.ServerURL, "/") + "/api/assistant"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := httpx.ExternalHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr httpapi.ErrorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("assistant: %s (%s)", apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("assistant request failed with status %d", resp.StatusCode)
	}

	out := cmd.OutOrStdout()
	err = llm.ReadStream(resp.Body, func(delta string) error {
		_, err := io.WriteString(out, delta)
		return err
	})
	fmt.Fprintln(out)
	return err
}
