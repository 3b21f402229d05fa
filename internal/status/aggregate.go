package status

// Dimension names one of the four tracked metrics.
type Dimension string

const (
	DimMethodology  Dimension = "methodology"
	DimPriorities   Dimension = "priorities"
	DimProductivity Dimension = "productivity"
	DimRisk         Dimension = "risk"
)

// Dimensions lists the metrics in display order.
var Dimensions = []Dimension{DimMethodology, DimPriorities, DimProductivity, DimRisk}

// Lights holds one client's four metric statuses.
type Lights struct {
	Methodology  Light `json:"methodology"`
	Priorities   Light `json:"priorities"`
	Productivity Light `json:"productivity"`
	Risk         Light `json:"risk"`
}

func (l Lights) Get(d Dimension) Light {
	switch d {
	case DimMethodology:
		return l.Methodology
	case DimPriorities:
		return l.Priorities
	case DimProductivity:
		return l.Productivity
	case DimRisk:
		return l.Risk
	default:
		panic("status: unknown dimension " + string(d))
	}
}

// Overall is the per-client aggregate: any red metric makes the client red.
func Overall(l Lights) Light {
	return WorstOf(l.Methodology, l.Priorities, l.Productivity, l.Risk)
}

type RollupResult struct {
	Light          Light   `json:"light"`
	Measured       int     `json:"measured"`
	Red            int     `json:"red"`
	Yellow         int     `json:"yellow"`
	Green          int     `json:"green"`
	Gray           int     `json:"gray"`
	RedPct         float64 `json:"red_pct"`
	YellowOrRedPct float64 `json:"yellow_or_red_pct"`
}

// Rollup summarises one dimension across many clients. Gray clients are
// left out of the denominator. The red-only share is checked before the
// combined yellow-or-red share.
func Rollup(lights []Light) RollupResult {
	var res RollupResult
	for _, l := range lights {
		switch l {
		case Red:
			res.Red++
		case Yellow:
			res.Yellow++
		case Green:
			res.Green++
		default:
			res.Gray++
		}
	}
	res.Measured = res.Red + res.Yellow + res.Green
	if res.Measured == 0 {
		res.Light = Gray
		return res
	}

	res.RedPct = float64(res.Red) * 100 / float64(res.Measured)
	res.YellowOrRedPct = float64(res.Yellow+res.Red) * 100 / float64(res.Measured)

	switch {
	case res.RedPct >= PortfolioRedPct:
		res.Light = Red
	case res.YellowOrRedPct >= PortfolioYellowOrRedRedPct:
		res.Light = Red
	case res.YellowOrRedPct >= PortfolioYellowOrRedPct:
		res.Light = Yellow
	default:
		res.Light = Green
	}
	return res
}
