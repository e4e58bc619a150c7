// Package probe drives one full SMTP session against a single MX host to
// classify a (host, sender identity, recipient) triple: RCPT probing with
// greylist retries, 5xx refinement, null-sender recheck, alt-sender
// retry, catch-all detection and the provider-specific corrections that
// need raw protocol evidence.
package probe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/optimode/verifykit/internal/smtpconn"
	"github.com/optimode/verifykit/types"
)

// Config configures a Prober.
type Config struct {
	SMTP smtpconn.Config

	// GreylistRetries is how often a 4xx RCPT is re-issued, with
	// GreylistDelay between attempts.
	GreylistRetries int
	GreylistDelay   time.Duration

	// StrictCatchAll disables the fast exit on a clean accept so the
	// catch-all probe always runs.
	StrictCatchAll bool

	// SoftenGatewayErrors reinterprets hard failures behind a detected
	// security gateway as gateway interference.
	SoftenGatewayErrors bool

	// AltSender, when set, is retried as MAIL FROM after a policy block
	// against the primary sender.
	AltSender string

	Clock clockwork.Clock
	Log   logrus.FieldLogger
}

// Input identifies one probe target.
type Input struct {
	Host      string
	HeloName  string
	Sender    string
	Recipient string
	Domain    string
	Family    types.ProviderFamily
	Gateway   types.Gateway
}

// Outcome is the verdict of one probe plus the gathered evidence.
type Outcome struct {
	Class    types.Classification
	Signals  types.Signals
	CatchAll bool
}

// Prober runs mailbox probes. One Run is one TCP session; any network
// failure at any step yields unknown/network and never an error.
type Prober struct {
	cfg      Config
	clock    clockwork.Clock
	log      logrus.FieldLogger
	bogusSeq atomic.Uint64
}

func New(cfg Config) *Prober {
	p := &Prober{cfg: cfg, clock: cfg.Clock, log: cfg.Log}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		p.log = l
	}
	return p
}

// Run probes one recipient on one host. The session always attempts QUIT
// on every exit path.
func (p *Prober) Run(ctx context.Context, in Input) Outcome {
	s, err := smtpconn.Dial(p.cfg.SMTP, in.Host)
	if err != nil {
		return p.networkOutcome(in, err)
	}
	defer s.Quit()

	out, err := p.converse(ctx, s, in)
	if err != nil {
		return p.networkOutcome(in, err)
	}
	return out
}

func (p *Prober) networkOutcome(in Input, err error) Outcome {
	p.log.WithField("stage", "probe").Debugf("%s via %s: %v", in.Recipient, in.Host, err)
	return Outcome{Class: types.Classification{Status: types.StatusUnknown, SubStatus: types.SubNetwork}}
}

// converse walks the protocol sequence. A returned error always means a
// transport failure; protocol-level rejections come back as outcomes.
func (p *Prober) converse(ctx context.Context, s *smtpconn.Session, in Input) (Outcome, error) {
	var sig types.Signals
	ambiguous := Outcome{Class: types.Classification{Status: types.StatusUnknown, SubStatus: types.SubAmbiguous}}

	greet, err := s.Greeting()
	if err != nil {
		return Outcome{}, err
	}
	if !greet.Success() {
		return ambiguous, nil
	}

	ehlo, err := s.Hello(in.HeloName)
	if err != nil {
		return Outcome{}, err
	}
	if !ehlo.Success() {
		return ambiguous, nil
	}

	mail, err := s.Mail(in.Sender)
	if err != nil {
		return Outcome{}, err
	}
	switch {
	case mail.Permanent():
		return Outcome{Class: types.Classification{Status: types.StatusRisky, SubStatus: types.SubPolicyBlock}}, nil
	case mail.Temporary():
		return Outcome{Class: types.Classification{Status: types.StatusRisky, SubStatus: types.SubGreylisted}}, nil
	}

	// real recipient, with greylist backoff
	real, err := p.rcptWithRetry(ctx, s, in.Recipient, p.cfg.GreylistRetries)
	if err != nil {
		return Outcome{}, err
	}
	cls := p.refine(classify(real), real, in)
	if real.Success() {
		sig.RealCode = real.Enhanced
	}

	// fast exit: a clean accept needs no further evidence unless we are
	// strict about catch-alls
	if !p.cfg.StrictCatchAll && cls.Is(types.StatusDeliverable, types.SubAccepted) {
		return Outcome{Class: cls, Signals: sig}, nil
	}

	// null-sender recheck
	if _, err := s.Rset(); err != nil {
		return Outcome{}, err
	}
	nullMail, err := s.Mail("")
	if err != nil {
		return Outcome{}, err
	}
	if nullMail.Success() {
		nullReply, err := p.rcptWithRetry(ctx, s, in.Recipient, 1)
		if err != nil {
			return Outcome{}, err
		}
		if nullReply.Success() {
			sig.NullCode = nullReply.Enhanced
		}
		switch {
		case real.Permanent() && nullReply.Success() && policyRe.MatchString(strings.ToLower(real.Text)):
			// the primary sender was blocked by policy, not the mailbox:
			// false-negative correction
			cls = types.Classification{Status: types.StatusDeliverable, SubStatus: types.SubAccepted}
		case real.Success() && nullReply.Success():
			sig.NullAgreesDeliverable = true
			if nullReply.Enhanced.Outranks(sig.RealCode) {
				sig.RealCode = nullReply.Enhanced
			}
		case real.Permanent() && nullReply.Permanent():
			sig.NullAgreesUndeliverable = true
		}
	}

	// alt-sender retry after a policy block
	if cls.Is(types.StatusRisky, types.SubPolicyBlock) && p.cfg.AltSender != "" && p.cfg.AltSender != in.Sender {
		if _, err := s.Rset(); err != nil {
			return Outcome{}, err
		}
		altMail, err := s.Mail(p.cfg.AltSender)
		if err != nil {
			return Outcome{}, err
		}
		if altMail.Success() {
			altReply, err := p.rcptWithRetry(ctx, s, in.Recipient, p.cfg.GreylistRetries)
			if err != nil {
				return Outcome{}, err
			}
			cls = p.refine(classify(altReply), altReply, in)
			if altReply.Success() {
				sig.RealCode = altReply.Enhanced
			}
			real = altReply
		}
	}

	// catch-all probe: two bogus recipients, one per sender flavor
	catchAll, err := p.probeCatchAll(ctx, s, in, &sig)
	if err != nil {
		return Outcome{}, err
	}
	if catchAll {
		sig.RealBeatsBogus = sig.RealCode.Outranks(sig.BogusCode)
		if cls.Status == types.StatusDeliverable && in.Family != types.FamilyCustom {
			// an individually verified accept may survive the catch-all
			// downgrade, but never on Google-family or Mimecast-routed
			// domains
			exempt := sig.RealBeatsBogus &&
				in.Family != types.FamilyGoogle &&
				in.Family != types.FamilyMimecast &&
				in.Gateway != types.GatewayMimecast
			if !exempt {
				cls = types.Classification{Status: types.StatusRisky, SubStatus: types.SubCatchAll}
			}
		}
	}

	// enterprise-gateway softening of hard failures
	if p.cfg.SoftenGatewayErrors && in.Gateway != types.GatewayNone {
		if cls.Is(types.StatusUndeliverable, types.Sub5xxOther) || cls.Is(types.StatusRisky, types.SubPolicyBlock) {
			sub := types.SubGatewayProtected
			if in.Gateway == types.GatewayBarracuda {
				sub = types.SubGatewayProtectedBarracuda
			}
			cls = types.Classification{Status: types.StatusRisky, SubStatus: sub}
		}
	}

	// Microsoft pins recipient-referencing 5xx to mailbox_not_found on
	// non-catch-all domains
	if in.Family == types.FamilyMicrosoft && !catchAll && real.Permanent() {
		lower := strings.ToLower(real.Text)
		if recipientRe.MatchString(lower) && !policyRe.MatchString(lower) {
			cls = types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubMailboxNotFound}
		}
	}

	// trusted-gateway override for catch-all accepts
	if catchAll && cls.Status == types.StatusDeliverable {
		switch {
		case in.Gateway.Trusted() && !sig.NullAgreesUndeliverable:
			cls = types.Classification{Status: types.StatusDeliverable, SubStatus: types.SubGatewayAccepted}
		case !sig.RealBeatsBogus:
			cls = types.Classification{Status: types.StatusRisky, SubStatus: types.SubCatchAll}
		}
	}

	return Outcome{Class: cls, Signals: sig, CatchAll: catchAll}, nil
}

// probeCatchAll issues two bogus-recipient RCPTs at the probe domain, one
// with the real sender and one with the null sender. Either accepting
// flags the domain catch-all.
func (p *Prober) probeCatchAll(ctx context.Context, s *smtpconn.Session, in Input, sig *types.Signals) (bool, error) {
	catchAll := false

	for _, sender := range []string{in.Sender, ""} {
		if _, err := s.Rset(); err != nil {
			return false, err
		}
		mail, err := s.Mail(sender)
		if err != nil {
			return false, err
		}
		if !mail.Success() {
			continue
		}
		reply, err := p.rcptWithRetry(ctx, s, p.bogusAddr(in.Domain), 1)
		if err != nil {
			return false, err
		}
		if reply.Success() {
			catchAll = true
			if sig.BogusCode.IsZero() || reply.Enhanced.Outranks(sig.BogusCode) {
				sig.BogusCode = reply.Enhanced
			}
		}
	}
	return catchAll, nil
}

// rcptWithRetry re-issues RCPT TO on temporary rejections, up to retries
// times with the greylist delay between attempts. Stops on 2xx or 5xx.
func (p *Prober) rcptWithRetry(ctx context.Context, s *smtpconn.Session, recipient string, retries int) (smtpconn.Reply, error) {
	reply, err := s.Rcpt(recipient)
	if err != nil {
		return reply, err
	}
	for i := 0; i < retries && reply.Temporary(); i++ {
		select {
		case <-ctx.Done():
			return reply, nil
		default:
		}
		p.clock.Sleep(p.cfg.GreylistDelay)
		reply, err = s.Rcpt(recipient)
		if err != nil {
			return reply, err
		}
	}
	return reply, nil
}

// bogusAddr builds a recipient that cannot exist at the domain.
func (p *Prober) bogusAddr(domain string) string {
	return fmt.Sprintf("vk-%d-%d@%s", p.clock.Now().UnixNano(), p.bogusSeq.Add(1), domain)
}
