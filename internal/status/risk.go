package status

import (
	"fmt"

	"scrumtrack/internal/domain"
)

type RiskResult struct {
	Light        Light  `json:"light"`
	Total        int    `json:"total"`
	Open         int    `json:"open"`
	InMitigation int    `json:"in_mitigation"`
	Mitigated    int    `json:"mitigated"`
	Materialized int    `json:"materialized"`
	Message      string `json:"message"`
}

// ClassifyRisks rates a client's risk register. Records outside rng (by
// identification date) are ignored.
func ClassifyRisks(risks []domain.RiskRecord, rng *DateRange) RiskResult {
	var res RiskResult
	for _, r := range risks {
		if !rng.Contains(r.IdentifiedAt) {
			continue
		}
		res.Total++
		switch r.Status {
		case domain.RiskOpen:
			res.Open++
		case domain.RiskInMitigation:
			res.InMitigation++
		case domain.RiskMitigated:
			res.Mitigated++
		case domain.RiskMaterialized:
			res.Materialized++
		default:
			panic(fmt.Sprintf("status: unknown risk status %q", r.Status))
		}
	}

	switch {
	case res.Total == 0:
		res.Light = Gray
		res.Message = "No risks registered"
	case res.Open > 0:
		res.Light = Red
		res.Message = fmt.Sprintf("%d open risk(s)", res.Open)
	case res.InMitigation > 0:
		res.Light = Yellow
		res.Message = fmt.Sprintf("%d risk(s) in mitigation", res.InMitigation)
	default:
		res.Light = Green
		res.Message = "All risks mitigated or materialized"
	}
	return res
}
