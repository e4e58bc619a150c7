package probe

import (
	"context"

	"github.com/optimode/verifykit/internal/rank"
	"github.com/optimode/verifykit/types"
)

// Rank orders probe outcomes by decisiveness:
// undeliverable > deliverable (non-catch-all) > risky > unknown/catch-all.
func Rank(o Outcome) int {
	switch {
	case o.Class.Status == types.StatusUndeliverable:
		return 3
	case o.Class.Status == types.StatusDeliverable && o.Class.SubStatus != types.SubCatchAll:
		return 2
	case o.Class.Status == types.StatusRisky && o.Class.SubStatus != types.SubCatchAll:
		return 1
	default:
		return 0
	}
}

// Ambiguous reports whether an outcome deserves a second look: anything
// short of undeliverable or a clean deliverable.
func Ambiguous(o Outcome) bool {
	return Rank(o) < 2
}

// Escalator re-runs a probe once more on a fresh socket when the first
// outcome is ambiguous and keeps the higher-ranked of the two
// independent verdicts; ties keep the first.
type Escalator struct {
	Prober  *Prober
	Enabled bool
}

func (e Escalator) Run(ctx context.Context, in Input) Outcome {
	first := e.Prober.Run(ctx, in)
	if !e.Enabled || !Ambiguous(first) {
		return first
	}

	second := e.Prober.Run(ctx, in)
	return rank.Best([]Outcome{first, second}, func(o Outcome) float64 {
		return float64(Rank(o))
	})
}
