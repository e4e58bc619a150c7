package probe

import (
	"regexp"
	"strings"

	"github.com/optimode/verifykit/internal/smtpconn"
	"github.com/optimode/verifykit/types"
)

var (
	// phrases naming the mailbox or recipient as the problem
	mailboxUnknownRe = regexp.MustCompile(`user unknown|unknown user|no such user|no such recipient|recipient not found|recipient unknown|mailbox not found|mailbox unavailable|mailbox disabled|does not exist|invalid recipient|invalid mailbox|address rejected|no mailbox`)

	// phrases naming sender reputation or policy as the problem
	policyRe = regexp.MustCompile(`spf|dmarc|spam|block(ed|list)|black.?list|denylist|denied|policy|prohibited|banned|refused|not authorized|reputation|listed at|barred`)

	// Microsoft-hosted recipient-not-found signatures
	microsoftNotFoundRe = regexp.MustCompile(`recipnotfound|recipient not found|resolver\.adr|5\.1\.10`)

	// generic recipient/mailbox references for the Microsoft heuristic
	recipientRe = regexp.MustCompile(`recipient|mailbox|user|address`)

	// over-quota phrasings
	mailboxFullRe = regexp.MustCompile(`mailbox full|over quota|quota exceeded|insufficient system storage`)
)

// classify maps a RCPT reply to the generic verdict: 2xx accepted,
// 4xx greylisted, 5xx mailbox_not_found (provisional, refined next),
// anything else ambiguous.
func classify(r smtpconn.Reply) types.Classification {
	switch {
	case r.Success():
		return types.Classification{Status: types.StatusDeliverable, SubStatus: types.SubAccepted}
	case r.Temporary():
		return types.Classification{Status: types.StatusRisky, SubStatus: types.SubGreylisted}
	case r.Permanent():
		return types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubMailboxNotFound}
	default:
		return types.Classification{Status: types.StatusUnknown, SubStatus: types.SubAmbiguous}
	}
}

// refine sharpens a provisional 5xx verdict using the enhanced code and
// the response text. Non-5xx classifications pass through untouched.
func (p *Prober) refine(cls types.Classification, r smtpconn.Reply, in Input) types.Classification {
	if !r.Permanent() {
		return cls
	}
	lower := strings.ToLower(r.Text)

	switch {
	case r.Enhanced.Class == 5 && r.Enhanced.Subject == 4:
		return types.Classification{Status: types.StatusRisky, SubStatus: types.SubPolicyBlock}

	case in.Family == types.FamilyMicrosoft && microsoftNotFoundRe.MatchString(lower):
		return types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubMailboxNotFound}

	case r.Code == 552 || (r.Enhanced.Class == 5 && r.Enhanced.Subject == 2 && r.Enhanced.Detail == 2) || mailboxFullRe.MatchString(lower):
		return types.Classification{Status: types.StatusRisky, SubStatus: types.SubMailboxFull}

	case mailboxUnknownRe.MatchString(lower) || (r.Enhanced.Class == 5 && r.Enhanced.Subject == 1 && r.Enhanced.Detail == 1):
		return types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubMailboxNotFound}

	case policyRe.MatchString(lower):
		return types.Classification{Status: types.StatusRisky, SubStatus: types.SubPolicyBlock}

	default:
		return types.Classification{Status: types.StatusUndeliverable, SubStatus: types.Sub5xxOther}
	}
}
