package verifykit

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/optimode/verifykit/internal/domainlist"
	"github.com/optimode/verifykit/internal/mx"
	"github.com/optimode/verifykit/internal/owner"
	"github.com/optimode/verifykit/internal/parse"
	"github.com/optimode/verifykit/internal/probe"
	"github.com/optimode/verifykit/internal/smtpconn"
	"github.com/optimode/verifykit/internal/training"
	"github.com/optimode/verifykit/types"
)

// TrainingStore supplies per-domain history of earlier verification
// outcomes. Implementations must be safe for concurrent use.
type TrainingStore interface {
	// Stats returns the accumulated counters for domain; ok is false
	// when the domain has no history.
	Stats(domain string) (types.TrainingStats, bool)
	// Record adds one outcome for domain under the given external
	// category (valid, invalid, risky, unknown).
	Record(domain, category string)
}

// NewMemoryTrainingStore returns an in-memory TrainingStore, suitable
// for single-process deployments.
func NewMemoryTrainingStore() TrainingStore {
	return training.NewMemoryStore()
}

// OwnerVerifier answers whether a mailbox exists according to the
// domain owner, independent of the SMTP conversation. A nil verdict
// means no opinion.
type OwnerVerifier interface {
	Check(ctx context.Context, email, domain string) *types.OwnerVerdict
}

// Validator is the verification engine. Instantiate with New; the
// With* methods inject test doubles and optional collaborators and
// return the receiver for chaining.
type Validator struct {
	cfg   Config
	err   error // configuration error, returned on Verify()
	log   logrus.FieldLogger
	clock clockwork.Clock

	once     sync.Once
	mx       *mx.Client
	resolver mx.Resolver
	dialer   smtpconn.Dialer
	owner    OwnerVerifier
	training TrainingStore
}

// New creates a Validator from cfg. Unset tunables fall back to their
// defaults. The configuration is validated lazily: a missing identity
// surfaces as ErrInvalidConfig on the first Verify call.
func New(cfg Config) *Validator {
	cfg = cfg.withDefaults()

	l := logrus.New()
	l.SetOutput(io.Discard)

	v := &Validator{
		cfg:   cfg,
		log:   l,
		clock: clockwork.NewRealClock(),
	}
	if len(cfg.identities()) == 0 {
		v.err = ErrInvalidConfig
	}
	return v
}

// WithLogger sets the logger. The default discards everything.
func (v *Validator) WithLogger(log logrus.FieldLogger) *Validator {
	v.log = log
	return v
}

// WithClock sets the clock used for pauses and cache expiry. Intended
// for tests.
func (v *Validator) WithClock(clock clockwork.Clock) *Validator {
	v.clock = clock
	return v
}

// WithResolver sets the DNS resolver. Intended for tests.
func (v *Validator) WithResolver(r mx.Resolver) *Validator {
	v.resolver = r
	return v
}

// WithDialer sets the SMTP dial function. Intended for tests.
func (v *Validator) WithDialer(d smtpconn.Dialer) *Validator {
	v.dialer = d
	return v
}

// WithOwnerVerifier replaces the built-in HTTP owner-verification
// client.
func (v *Validator) WithOwnerVerifier(o OwnerVerifier) *Validator {
	v.owner = o
	return v
}

// WithTrainingStore attaches a history store. Verdicts are recorded
// into it and, once a domain has enough samples, adjusted by it.
func (v *Validator) WithTrainingStore(s TrainingStore) *Validator {
	v.training = s
	return v
}

// init builds the shared collaborators on first use, after all With*
// calls have been applied. Safe under concurrent Verify calls.
func (v *Validator) init() {
	v.once.Do(func() {
		if v.resolver != nil {
			v.mx = mx.NewWithResolver(v.cfg.ConnectTimeout, v.cfg.MXCacheTTL, v.clock, v.resolver)
		} else {
			v.mx = mx.New(v.cfg.ConnectTimeout, v.cfg.MXCacheTTL, v.clock)
		}
		if v.owner == nil {
			v.owner = owner.New(v.cfg.OwnerEndpoints, v.cfg.OwnerTimeout, v.cfg.OwnerCacheTTL, v.clock)
		}
	})
}

// Verify runs the full pipeline on one address: syntax, domain policy,
// MX resolution, the SMTP probe loop, owner verification, provider and
// training adjustment, scoring. A non-nil error means the Validator is
// misconfigured or the context ended; every mailbox-level problem is
// expressed in the Result instead.
func (v *Validator) Verify(ctx context.Context, email string) (Result, error) {
	if v.err != nil {
		return Result{}, v.err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	v.init()

	parsed := parse.NewEmail(email)
	res := Result{Input: email, Domain: parsed.Domain}

	if !parsed.Routable() {
		return v.finish(res, parsed, types.Classification{
			Status: types.StatusUndeliverable, SubStatus: types.SubSyntax,
		}, types.Signals{}), nil
	}

	res.Suggestion = domainlist.Suggest(parsed.Domain)

	// Protected domains are never probed over SMTP.
	if sub, ok := v.protectedDomain(parsed.Domain); ok {
		rec := v.mx.Resolve(ctx, parsed.Domain)
		res.Provider = rec.Provider
		out := v.finish(res, parsed, types.Classification{
			Status: types.StatusRisky, SubStatus: sub,
		}, types.Signals{})
		out.Confidence = 0.7
		return out, nil
	}

	ownerVerdict := v.owner.Check(ctx, parsed.Addr(), parsed.Domain)
	res.Owner = ownerVerdict

	rec := v.mx.Resolve(ctx, parsed.Domain)
	res.Provider = rec.Provider
	hosts := rec.Hosts
	if len(hosts) == 0 {
		// No MX record. An A record still makes the domain itself the
		// implicit mail host (RFC 5321 section 5.1).
		if v.mx.HasAddress(ctx, parsed.Domain) {
			hosts = []string{parsed.Domain}
		} else {
			return v.finish(res, parsed, types.Classification{
				Status: types.StatusUndeliverable, SubStatus: types.SubNoMXOrA,
			}, types.Signals{}), nil
		}
	}

	out := v.probeLoop(ctx, parsed, rec, hosts)
	out = v.applyOwner(out, ownerVerdict)
	out = v.applyGatewayPosture(out, parsed, rec)
	out = v.applyProfile(out, parsed, rec)
	out = v.applyTraining(out, parsed)

	final := v.finish(res, parsed, out.Class, out.Signals)
	if v.training != nil {
		v.training.Record(parsed.Domain, final.Category)
	}
	return final, nil
}

// protectedDomain matches domain against the bank and high-risk lists,
// exactly or as a parent-domain suffix.
func (v *Validator) protectedDomain(domain string) (string, bool) {
	if matchDomain(domain, v.cfg.BankDomains) {
		return types.SubBankDomainPolicy, true
	}
	if matchDomain(domain, v.cfg.HighRiskDomains) {
		return types.SubHighRiskDomainPolicy, true
	}
	return "", false
}

func matchDomain(domain string, list []string) bool {
	for _, d := range list {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// probeLoop walks MX hosts in priority order and identities in
// configured order until a conclusive verdict emerges.
func (v *Validator) probeLoop(ctx context.Context, parsed parse.Email, rec mx.Record, hosts []string) probe.Outcome {
	if len(hosts) > v.cfg.MaxMXHosts {
		hosts = hosts[:v.cfg.MaxMXHosts]
	}
	ids := v.cfg.identities()
	if len(ids) > v.cfg.MaxIdentities {
		ids = ids[:v.cfg.MaxIdentities]
	}

	// best holds the probe's own verdicts only; the network placeholder
	// stands in solely until the first probe has run.
	best := probe.Outcome{Class: types.Classification{
		Status: types.StatusUnknown, SubStatus: types.SubNetwork,
	}}
	ran := false

	for _, host := range hosts {
		for i, id := range ids {
			if i > 0 {
				v.clock.Sleep(v.cfg.IdentityPause)
			}
			if err := ctx.Err(); err != nil {
				return best
			}

			out := v.probeOnce(ctx, parsed, rec, host, id)
			if !ran || probe.Rank(out) >= probe.Rank(best) {
				best = out
				ran = true
			}
			if out.Class.Status == types.StatusUndeliverable {
				return out
			}
			if v.conclusiveAccept(out, rec) {
				return out
			}
		}
	}
	return best
}

func (v *Validator) probeOnce(ctx context.Context, parsed parse.Email, rec mx.Record, host string, id Identity) probe.Outcome {
	p := probe.New(probe.Config{
		SMTP: smtpconn.Config{
			ConnectTimeout: v.cfg.ConnectTimeout,
			CommandTimeout: v.cfg.CommandTimeout,
			Port:           v.cfg.Port,
			Dial:           v.dialer,
		},
		GreylistRetries:     max(v.cfg.GreylistRetries, 0),
		GreylistDelay:       v.cfg.GreylistDelay,
		StrictCatchAll:      !v.cfg.SkipCatchAllProbe,
		SoftenGatewayErrors: !v.cfg.DisableGatewaySoftening,
		AltSender:           v.cfg.AltMailFrom,
		Clock:               v.clock,
		Log:                 v.log,
	})
	esc := probe.Escalator{Prober: p, Enabled: !v.cfg.DisableEscalation}

	in := probe.Input{
		Host:      host,
		HeloName:  id.HeloName,
		Sender:    id.MailFrom,
		Recipient: parsed.Addr(),
		Domain:    parsed.Domain,
		Family:    rec.Family,
		Gateway:   rec.Gateway,
	}

	attempts := v.cfg.AttemptsPerIdentity
	out := esc.Run(ctx, in)
	for a := 1; a < attempts && probe.Ambiguous(out); a++ {
		next := esc.Run(ctx, in)
		if probe.Rank(next) > probe.Rank(out) {
			out = next
		}
	}
	return out
}

// conclusiveAccept reports whether a deliverable verdict ends the host
// loop. Enterprise relays keep being cross-checked because the first
// accept often comes from the filter, not the mailbox host.
func (v *Validator) conclusiveAccept(out probe.Outcome, rec mx.Record) bool {
	if out.Class.Status != types.StatusDeliverable || out.Class.SubStatus == types.SubCatchAll {
		return false
	}
	return !rec.Family.EnterpriseGateway() && rec.Gateway == types.GatewayNone
}

// applyOwner lets an owner-verification answer override the probe.
func (v *Validator) applyOwner(out probe.Outcome, verdict *types.OwnerVerdict) probe.Outcome {
	if verdict == nil {
		return out
	}
	if verdict.Exists {
		out.Class = types.Classification{Status: types.StatusDeliverable, SubStatus: types.SubOwnerVerified}
		return out
	}
	if out.CatchAll || out.Class.Status == types.StatusDeliverable {
		// the SMTP conversation vouched for the address or could not test
		// it at all, and owner directories are often incomplete; stay risky
		out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubCatchAllOwnerMissing}
		return out
	}
	out.Class = types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubOwnerVerifiedMissing}
	return out
}

// applyGatewayPosture adjusts verdicts for corporate domains behind a
// security gateway, where the relay's answers describe its filtering
// policy more than the mailbox.
func (v *Validator) applyGatewayPosture(out probe.Outcome, parsed parse.Email, rec mx.Record) probe.Outcome {
	if !v.corporate(parsed.Domain) {
		return out
	}

	if v.cfg.PromoteGatewayCatchAll &&
		rec.Gateway != types.GatewayNone &&
		out.Class.Is(types.StatusRisky, types.SubCatchAll) {
		out.Class = types.Classification{Status: types.StatusDeliverable, SubStatus: types.SubGatewayAccepted}
		return out
	}

	if rec.Gateway == types.GatewayBarracuda && !v.cfg.TrustBarracuda {
		// Barracuda accepts almost anything at RCPT time and bounces
		// later, so a bare accept is not trustworthy.
		switch {
		case out.Class.Is(types.StatusDeliverable, types.SubAccepted):
			out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubBarracudaUntrusted}
		case out.Class.Status == types.StatusUnknown:
			out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubGatewayProtectedBarracuda}
		}
		return out
	}

	if rec.Gateway != types.GatewayNone && out.Class.Status == types.StatusRisky {
		switch out.Class.SubStatus {
		case types.SubGatewayProtected, types.SubGatewayProtectedBarracuda,
			types.SubPolicyBlock, types.SubGreylisted:
			out.Class = types.Classification{Status: types.StatusUnknown, SubStatus: types.SubGatewayHidden}
		}
	}
	return out
}

// applyTraining folds per-domain history into the verdict once a domain
// has enough samples.
func (v *Validator) applyTraining(out probe.Outcome, parsed parse.Email) probe.Outcome {
	if v.training == nil {
		return out
	}
	stats, ok := v.training.Stats(parsed.Domain)
	if !ok || stats.Total < v.cfg.TrainingMinSamples {
		return out
	}

	switch {
	case out.Class.Status == types.StatusRisky && stats.InvalidRatio() >= 0.9:
		out.Class = types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubTrainedMostlyInvalid}
	case out.Class.Status == types.StatusDeliverable && v.corporate(parsed.Domain) && stats.TroubledRatio() >= 0.7:
		out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubTrainedHighRisky}
	case stats.ValidRatio() >= 0.95 &&
		(out.Class.Status == types.StatusUnknown || out.Class.Is(types.StatusRisky, types.SubGreylisted)):
		out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubTrainedMostlyValid}
	}
	return out
}

// corporate means neither a free mailbox provider nor a disposable
// service: a domain whose mailboxes belong to one organization.
func (v *Validator) corporate(domain string) bool {
	return !domainlist.IsFree(domain) && !domainlist.IsDisposable(domain)
}

// finish assembles the external Result from the final classification.
func (v *Validator) finish(res Result, parsed parse.Email, cls types.Classification, sig types.Signals) Result {
	res.Category = cls.Status.Category()
	res.StatusLabel = statusLabels[res.Category]
	res.SubStatus = cls.SubStatus

	res.Flags = Flags{
		Disposable:  domainlist.IsDisposable(parsed.Domain),
		Free:        domainlist.IsFree(parsed.Domain),
		RoleAccount: domainlist.IsRole(parsed.Local),
	}

	_, res.Provisional = provisionalSubs[cls.SubStatus]

	res.Score = scoreFor(cls, res.Flags)
	res.Confidence = confidenceFor(cls, sig)
	res.Reason = reasonFor(cls, res.Owner)

	v.log.WithFields(logrus.Fields{
		"stage":    "verify",
		"email":    res.Input,
		"category": res.Category,
		"sub":      res.SubStatus,
	}).Debug("verdict")

	return res
}

// VerifyMany verifies multiple addresses concurrently with a bounded
// worker pool. The result order matches the input order. Addresses are
// grouped by domain so the MX cache gets maximal reuse.
func (v *Validator) VerifyMany(ctx context.Context, emails []string, workers int) ([]Result, error) {
	if v.err != nil {
		return nil, v.err
	}
	if workers <= 0 {
		workers = 5
	}

	type job struct {
		idx    int
		email  string
		domain string
	}

	jobSlice := make([]job, len(emails))
	for i, e := range emails {
		domain := ""
		if at := strings.LastIndex(e, "@"); at >= 0 {
			domain = strings.ToLower(e[at+1:])
		}
		jobSlice[i] = job{idx: i, email: e, domain: domain}
	}
	// Stable by-domain grouping keeps cache locality without reordering
	// addresses within a domain.
	sort.SliceStable(jobSlice, func(i, j int) bool {
		return jobSlice[i].domain < jobSlice[j].domain
	})

	jobs := make(chan job)
	go func() {
		defer close(jobs)
		for _, j := range jobSlice {
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, len(emails))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := v.Verify(ctx, j.email)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("verifying %q: %w", j.email, err)
					}
					mu.Unlock()
					continue
				}
				results[j.idx] = res
			}
		}()
	}

	wg.Wait()
	return results, firstErr
}
