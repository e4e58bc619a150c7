package verifykit

import (
	"time"

	"github.com/optimode/verifykit/types"
)

// Flags are address-shape attributes that never change a category by
// themselves but feed the score.
type Flags struct {
	Disposable  bool `json:"disposable"`
	Free        bool `json:"free"`
	RoleAccount bool `json:"roleBased"`
}

// Result is the full outcome of one verification.
type Result struct {
	// Input is the address as given by the caller.
	Input string `json:"input"`
	// Category is the external verdict: valid, invalid, risky or unknown.
	Category string `json:"category"`
	// StatusLabel is the human-readable category, e.g. "✅ Valid".
	StatusLabel string `json:"statusLabel"`
	// Domain is the normalized (punycode) domain.
	Domain string `json:"domain"`
	// Provider is the mailbox operator label derived from the MX hosts.
	Provider string `json:"provider,omitempty"`
	// SubStatus is the fine-grained tag behind Category.
	SubStatus string `json:"subStatus,omitempty"`
	// Score is a 0-100 quality score.
	Score int `json:"score"`
	// Confidence is how certain the engine is of Category, 0..0.99.
	Confidence float64 `json:"confidence"`
	// Reason is a human-readable explanation of the verdict.
	Reason string `json:"reason,omitempty"`

	Flags Flags `json:"flags"`

	// Provisional marks verdicts that a later retry could improve
	// (greylisting, gateway interference, network trouble).
	Provisional bool `json:"provisional,omitempty"`

	// Owner is the owner-verification answer, when an endpoint was
	// configured for the domain.
	Owner *types.OwnerVerdict `json:"owner,omitempty"`

	// Suggestion is a likely intended domain when the given one looks
	// like a typo. Informational only.
	Suggestion string `json:"suggestion,omitempty"`
}

// Deliverable reports whether the verdict is the valid category.
func (r Result) Deliverable() bool { return r.Category == "valid" }

// Conclusive reports whether the verdict is settled: not provisional
// and not in the unknown category.
func (r Result) Conclusive() bool { return !r.Provisional && r.Category != "unknown" }

// statusLabels map the external category to its display label.
var statusLabels = map[string]string{
	"valid":   "✅ Valid",
	"invalid": "❌ Invalid",
	"risky":   "⚠️ Risky",
	"unknown": "❓ Unknown",
}

// provisionalSubs are sub-statuses a retry might resolve.
var provisionalSubs = map[string]struct{}{
	types.SubGreylisted:                {},
	types.SubAmbiguous:                 {},
	types.SubNetwork:                   {},
	types.SubGatewayHidden:             {},
	types.SubGatewayProtected:          {},
	types.SubGatewayProtectedBarracuda: {},
	types.SubYahooGreylist:             {},
	types.SubZohoPolicyUnknown:         {},
	types.SubM365Ambiguous5xx:          {},
}

// RoundTrace summarizes one round of a stabilized verification.
type RoundTrace struct {
	Category   string  `json:"category"`
	SubStatus  string  `json:"subStatus,omitempty"`
	Confidence float64 `json:"confidence"`
}

// StabilizedResult is the reconciled outcome of VerifyStable.
type StabilizedResult struct {
	Result
	// Rounds traces every executed round in order.
	Rounds []RoundTrace `json:"rounds"`
	// Elapsed is the total wall time spent across rounds.
	Elapsed time.Duration `json:"elapsed"`
}

// Agreement is the share of rounds that landed on the final category.
// 1.0 means every round agreed; low values flag unstable domains.
func (s StabilizedResult) Agreement() float64 {
	if len(s.Rounds) == 0 {
		return 0
	}
	agree := 0
	for _, r := range s.Rounds {
		if r.Category == s.Category {
			agree++
		}
	}
	return float64(agree) / float64(len(s.Rounds))
}

func traceOf(res Result) RoundTrace {
	return RoundTrace{Category: res.Category, SubStatus: res.SubStatus, Confidence: res.Confidence}
}
