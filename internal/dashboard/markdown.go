package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"scrumtrack/internal/status"
)

var lightEmoji = map[status.Light]string{
	status.Gray:   ":white_circle:",
	status.Green:  ":large_green_circle:",
	status.Yellow: ":large_yellow_circle:",
	status.Red:    ":red_circle:",
}

// RenderMarkdown renders the dashboard as the status digest. Clients are
// listed worst first, then by name.
func RenderMarkdown(d Dashboard) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("#### Client status (%s)\n\n", d.GeneratedAt.Format("2006-01-02")))

	buf.WriteString("Portfolio:\n")
	for _, p := range d.Portfolio {
		buf.WriteString(fmt.Sprintf("- %s %s\n", lightEmoji[p.Result.Light], p.Explanation))
	}
	buf.WriteString("\n")

	clients := make([]ClientStatusBundle, len(d.Clients))
	copy(clients, d.Clients)
	sort.SliceStable(clients, func(i, j int) bool {
		if clients[i].Overall != clients[j].Overall {
			return clients[i].Overall.Priority() > clients[j].Overall.Priority()
		}
		return clients[i].Client.Name < clients[j].Client.Name
	})

	for _, b := range clients {
		buf.WriteString(fmt.Sprintf("%s **%s** (%s)\n", lightEmoji[b.Overall], b.Client.Name, b.Overall.Label()))
		for _, dim := range status.Dimensions {
			l := b.Lights.Get(dim)
			buf.WriteString(fmt.Sprintf("  - %s %s: %s\n", lightEmoji[l], dim, b.Explanations[dim]))
			if dim == status.DimPriorities {
				writeLateLists(&buf, b)
			}
		}
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String()) + "\n"
}

// writeLateLists details every priority list that is not green.
func writeLateLists(buf *strings.Builder, b ClientStatusBundle) {
	for _, l := range b.Priorities.Lists {
		if l.Light == status.Green {
			continue
		}
		buf.WriteString(fmt.Sprintf("    - %s %s: %s\n", lightEmoji[l.Light], b.ListNames[l.ListID], l.Explanation))
	}
}

// RenderRoadmap renders one line per backlog item grouped by lifecycle.
func RenderRoadmap(entries []status.RoadmapEntry) string {
	groups := make(map[status.Lifecycle][]status.RoadmapEntry)
	for _, e := range entries {
		groups[e.State] = append(groups[e.State], e)
	}

	var buf strings.Builder
	for _, state := range []status.Lifecycle{
		status.Overdue, status.InSprint, status.InPlanning, status.Unplanned, status.Delivered,
	} {
		if len(groups[state]) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("#### %s\n\n", state))
		for _, e := range groups[state] {
			line := fmt.Sprintf("- %s (size %d", e.Item.Title, e.Size)
			if e.SprintEnd != nil {
				line += ", sprint ends " + e.SprintEnd.Format("2006-01-02")
			}
			buf.WriteString(line + ")\n")
		}
		buf.WriteString("\n")
	}
	if buf.Len() == 0 {
		return "No backlog items.\n"
	}
	return strings.TrimSpace(buf.String()) + "\n"
}
