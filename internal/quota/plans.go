package quota

// Plan describes a subscription tier's per-cycle token allotments.
type Plan struct {
	ID          string   `json:"id"`
	Cycle       Cycle    `json:"cycle"`
	TextTokens  int64    `json:"textTokens"`
	ImageTokens int64    `json:"imageTokens"`
	Features    []string `json:"features"`
}

const DefaultPlanID = "free"

var plans = map[string]Plan{
	"free": {
		ID:          "free",
		Cycle:       CycleMonthly,
		TextTokens:  20_000,
		ImageTokens: 20,
		Features:    []string{"pdf-chat", "summaries"},
	},
	"pro": {
		ID:          "pro",
		Cycle:       CycleMonthly,
		TextTokens:  500_000,
		ImageTokens: 500,
		Features:    []string{"pdf-chat", "summaries", "priority-ingestion"},
	},
	"premium": {
		ID:          "premium",
		Cycle:       CycleAnnual,
		TextTokens:  8_000_000,
		ImageTokens: 8_000,
		Features:    []string{"pdf-chat", "summaries", "priority-ingestion", "bulk-upload"},
	},
}

// PlanByID returns the plan for an identifier, falling back to the free
// plan for unknown ids.
func PlanByID(id string) Plan {
	if p, ok := plans[id]; ok {
		return p
	}
	return plans[DefaultPlanID]
}

// Allotment returns the plan's per-cycle allotment for a kind.
func (p Plan) Allotment(kind Kind) int64 {
	if kind == KindImage {
		return p.ImageTokens
	}
	return p.TextTokens
}
