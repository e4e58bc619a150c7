package verifykit

import (
	"context"

	"github.com/optimode/verifykit/internal/rank"
	"github.com/optimode/verifykit/types"
)

// VerifyStable runs Verify up to Config.Rounds times and reconciles the
// rounds into one verdict. Mail servers answer probabilistically under
// greylisting, rate limiting and gateway interference; repeating the
// conversation and voting over the outcomes smooths that noise out.
//
// Rounds stop early when the verdict cannot improve: a policy shortcut,
// an invalid verdict, or two consecutive rounds agreeing on the
// category. The total time across rounds is bounded by
// Config.RoundBudget.
func (v *Validator) VerifyStable(ctx context.Context, email string) (StabilizedResult, error) {
	if v.err != nil {
		return StabilizedResult{}, v.err
	}

	start := v.clock.Now()
	var rounds []Result
	var traces []RoundTrace

	for i := 0; i < v.cfg.Rounds; i++ {
		if i > 0 {
			v.clock.Sleep(v.cfg.RoundPause)
		}
		if err := ctx.Err(); err != nil {
			break
		}

		roundStart := v.clock.Now()
		res, err := v.Verify(ctx, email)
		if err != nil {
			return StabilizedResult{}, err
		}
		rounds = append(rounds, res)
		traces = append(traces, traceOf(res))

		if v.roundsSettled(rounds) {
			break
		}

		// Do not start a round that the budget cannot fit; the last
		// round's duration is the best available estimate.
		roundCost := v.clock.Now().Sub(roundStart)
		if v.clock.Now().Sub(start)+roundCost+v.cfg.RoundPause > v.cfg.RoundBudget {
			break
		}
	}

	if len(rounds) == 0 {
		// the context was done before the first round could run
		return StabilizedResult{}, ctx.Err()
	}

	final := v.reconcile(rounds)
	return StabilizedResult{
		Result:  final,
		Rounds:  traces,
		Elapsed: v.clock.Now().Sub(start),
	}, nil
}

// roundsSettled reports whether further rounds cannot change the
// verdict.
func (v *Validator) roundsSettled(rounds []Result) bool {
	last := rounds[len(rounds)-1]

	// Policy shortcuts skip SMTP entirely; repeating them is pointless.
	switch last.SubStatus {
	case types.SubSyntax, types.SubNoMXOrA,
		types.SubBankDomainPolicy, types.SubHighRiskDomainPolicy:
		return true
	}
	// A permanent rejection does not get better with repetition.
	if last.Category == "invalid" {
		return true
	}
	if len(rounds) >= 2 && rounds[len(rounds)-2].Category == last.Category {
		return true
	}
	return false
}

// reconcile votes over the executed rounds. Invalid evidence dominates,
// then valid, with risky able to override valid only when it showed up
// repeatedly and with clearly higher confidence.
func (v *Validator) reconcile(rounds []Result) Result {
	if len(rounds) == 0 {
		return Result{}
	}
	if len(rounds) == 1 {
		return rounds[0]
	}

	byConfidence := func(r Result) float64 { return r.Confidence }
	of := func(category string) []Result {
		return rank.Filter(rounds, func(r Result) bool { return r.Category == category })
	}

	if invalid := of("invalid"); len(invalid) > 0 {
		return rank.Best(invalid, byConfidence)
	}

	valid := of("valid")
	risky := of("risky")

	if len(valid) > 0 {
		if len(risky) >= v.cfg.MinRiskyRounds {
			bestValid := rank.Best(valid, byConfidence)
			bestRisky := rank.Best(risky, byConfidence)
			if bestRisky.Confidence > bestValid.Confidence+v.cfg.RiskyMargin {
				return bestRisky
			}
		}
		return rank.Best(valid, byConfidence)
	}
	if len(risky) > 0 {
		return rank.Best(risky, byConfidence)
	}
	if unknown := of("unknown"); len(unknown) > 0 {
		return rank.Best(unknown, byConfidence)
	}
	return rounds[len(rounds)-1]
}
