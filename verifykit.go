// Package verifykit verifies the deliverability of email addresses by
// talking to the receiving mail servers directly: it resolves the MX
// hosts, opens an SMTP session, and walks the conversation up to RCPT
// TO without ever sending a message.
//
// Basic usage:
//
//	cfg := verifykit.DefaultConfig()
//	cfg.HeloName = "verifier.myapp.com"
//	cfg.MailFrom = "probe@myapp.com"
//
//	result, err := verifykit.New(cfg).Verify(ctx, "user@example.com")
//
// Verify answers with a category (valid, invalid, risky, unknown), a
// fine-grained sub-status, a score and a confidence. VerifyStable runs
// the conversation multiple times and reconciles the rounds, which
// smooths out greylisting and gateway noise at the cost of latency.
package verifykit

import "github.com/optimode/verifykit/types"

// Status is a re-export from the types package so that consumers don't
// need to import the types package directly.
type Status = types.Status

// Classification is a re-export.
type Classification = types.Classification

// Signals is a re-export.
type Signals = types.Signals

// TrainingStats is a re-export.
type TrainingStats = types.TrainingStats

// OwnerVerdict is a re-export.
type OwnerVerdict = types.OwnerVerdict

// Status constants re-exported.
const (
	StatusDeliverable   = types.StatusDeliverable
	StatusUndeliverable = types.StatusUndeliverable
	StatusRisky         = types.StatusRisky
	StatusUnknown       = types.StatusUnknown
)
