package status

// Every classifier and explanation reads its limits from here.
const (
	// Methodology: deviation = elapsed% - completed%.
	MethodologyRedDeviation    = 18.0 // deviation > 18 is red
	MethodologyYellowDeviation = 10.0 // deviation > 10 is yellow

	// Priority lists.
	ScheduleRedDaysLate     = 7    // a task more than 7 days late is red
	ScheduleRedOverduePct   = 30.0 // overdue share above 30% is red
	ClientYellowListsRedPct = 51.0 // >= 51% yellow lists escalates to red

	// Productivity.
	ProductivityOpen15Yellow  = 1    // tickets open > 15 days
	ProductivityOpen15Red     = 2
	ProductivityBacklogYellow = 12.0 // backlog/opened >= 12% is yellow
	ProductivityBacklogRed    = 18.0 // backlog/opened >= 18% is red

	// Portfolio rollup over measured (non-gray) clients.
	PortfolioRedPct            = 10.0 // red share >= 10% is red
	PortfolioYellowOrRedRedPct = 18.0 // yellow+red share >= 18% is red
	PortfolioYellowOrRedPct    = 10.0 // yellow+red share >= 10% is yellow
)
