package llm

import (
	"fmt"
	"strings"

	"scrumtrack/internal/dashboard"
	"scrumtrack/internal/status"
)

const assistantPreamble = `You are a project-management assistant for a software consultancy.
Answer concisely. When status data is provided, base your answer on it and
do not invent figures that are not in it.`

// SystemPrompt builds the assistant instructions. When bundle is non-nil its
// traffic lights and rule explanations are appended as context.
func SystemPrompt(bundle *dashboard.ClientStatusBundle) string {
	if bundle == nil {
		return assistantPreamble
	}

	var b strings.Builder
	b.WriteString(assistantPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current status of client %q: overall %s (%s).\n",
		bundle.Client.Name, bundle.Overall, bundle.Overall.Label())
	for _, dim := range status.Dimensions {
		fmt.Fprintf(&b, "- %s: %s. %s\n", dim, bundle.Lights.Get(dim), bundle.Explanations[dim])
	}
	return strings.TrimSpace(b.String())
}
