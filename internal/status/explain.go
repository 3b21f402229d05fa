package status

import (
	"fmt"
	"strings"
)

// Label is the display name of a light.
func (l Light) Label() string {
	switch l {
	case Green:
		return "On track"
	case Yellow:
		return "Attention"
	case Red:
		return "Critical"
	default:
		return "No data"
	}
}

func ExplainMethodology(r MethodologyResult) string {
	if !r.HasPeriod {
		return "No reporting period selected"
	}
	if r.Total == 0 {
		return "No client work planned in sprints for this period"
	}
	return fmt.Sprintf(
		"%d/%d items delivered (%.1f%%), %.1f%% of the period elapsed, deviation %.1f p.p. (yellow > %.0f, red > %.0f)",
		r.Completed, r.Total, r.CompletedPct, r.ElapsedPct, r.Deviation,
		MethodologyYellowDeviation, MethodologyRedDeviation,
	)
}

func ExplainScheduleList(r ScheduleListResult) string {
	if r.Overdue == 0 {
		return fmt.Sprintf("%d open task(s), none overdue", r.Open)
	}
	return fmt.Sprintf(
		"%d overdue of %d task(s) (%.1f%%), worst %d day(s) late (red when > %d days or > %.0f%%)",
		r.Overdue, r.Considered, r.OverduePct, r.MaxDaysLate,
		ScheduleRedDaysLate, ScheduleRedOverduePct,
	)
}

func ExplainPriorities(r PrioritiesResult) string {
	if len(r.Lists) == 0 {
		return "No priority lists"
	}
	msg := fmt.Sprintf("%d list(s): %d red, %d yellow", len(r.Lists), r.RedLists, r.YellowLists)
	if r.Escalated {
		msg += fmt.Sprintf("; %.0f%% of lists yellow (>= %.0f%%) escalates to red", r.YellowPct, ClientYellowListsRedPct)
	}
	return msg
}

func ExplainProductivity(r ProductivityResult) string {
	if r.Snapshot == nil {
		return "No productivity data for the selected range"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Open > 15 days: %d (%s). ", r.OpenOver15Days, r.Open15Light)
	if r.Opened == 0 {
		b.WriteString("No tickets opened, backlog ratio not applicable (green).")
	} else {
		fmt.Fprintf(&b, "Backlog %d/%d opened = %.1f%% (%s; yellow >= %.0f%%, red >= %.0f%%). Closed %.1f%%.",
			r.Backlog, r.Opened, r.BacklogPct, r.BacklogLight,
			ProductivityBacklogYellow, ProductivityBacklogRed, r.ClosedPct)
	}
	return b.String()
}

func ExplainRisks(r RiskResult) string {
	if r.Total == 0 {
		return r.Message
	}
	return fmt.Sprintf("%s (%d total: %d open, %d in mitigation, %d mitigated, %d materialized)",
		r.Message, r.Total, r.Open, r.InMitigation, r.Mitigated, r.Materialized)
}

func ExplainRollup(d Dimension, r RollupResult) string {
	if r.Measured == 0 {
		return fmt.Sprintf("%s: no client measured", d)
	}
	return fmt.Sprintf("%s: %d measured, %d red (%.1f%%), %d yellow, yellow or red %.1f%%",
		d, r.Measured, r.Red, r.RedPct, r.Yellow, r.YellowOrRedPct)
}
