package verifykit

import "github.com/optimode/verifykit/types"

// scoreFor computes the 0-100 quality score from the classification and
// the address-shape flags.
func scoreFor(cls types.Classification, flags Flags) int {
	var score int
	switch cls.Status {
	case types.StatusDeliverable:
		score = 95
	case types.StatusUndeliverable:
		score = 5
	case types.StatusRisky:
		score = 45
	default:
		score = 35
	}

	if flags.Disposable {
		score -= 30
	}
	if flags.Free {
		score -= 10
	}
	if flags.RoleAccount {
		score -= 10
	}
	if catchAllFlavored(cls.SubStatus) {
		score -= 20
	}
	if cls.SubStatus == types.SubMailboxFull {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// confidenceFor computes how certain the engine is of the category,
// strengthened by corroborating probe evidence.
func confidenceFor(cls types.Classification, sig types.Signals) float64 {
	var conf float64
	switch {
	case cls.Status == types.StatusDeliverable:
		conf = 0.85
	case cls.Status == types.StatusUndeliverable:
		conf = 0.95
	case cls.Is(types.StatusRisky, types.SubCatchAll):
		conf = 0.75
	case cls.Status == types.StatusUnknown:
		conf = 0.4
	default:
		conf = 0.55
	}

	if sig.RealBeatsBogus {
		conf += 0.08
	}
	if sig.NullAgreesDeliverable {
		conf += 0.05
	}
	if sig.NullAgreesUndeliverable {
		conf += 0.05
	}

	if conf < 0 {
		conf = 0
	}
	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}

type reasonKey struct {
	status types.Status
	sub    string
}

var reasons = map[reasonKey]string{
	{types.StatusDeliverable, types.SubAccepted}:        "The mailbox accepted the recipient and rejected a bogus one.",
	{types.StatusDeliverable, types.SubOwnerVerified}:   "The domain owner's directory confirms this mailbox exists.",
	{types.StatusDeliverable, types.SubGatewayAccepted}: "A recipient-verifying security gateway accepted this address.",

	{types.StatusUndeliverable, types.SubSyntax}:               "The address is not a routable email address.",
	{types.StatusUndeliverable, types.SubNoMXOrA}:              "The domain has neither MX nor A records; mail cannot be routed to it.",
	{types.StatusUndeliverable, types.SubMailboxNotFound}:      "The mail server reported that this mailbox does not exist.",
	{types.StatusUndeliverable, types.Sub5xxOther}:             "The mail server permanently rejected the recipient.",
	{types.StatusUndeliverable, types.SubOwnerVerifiedMissing}: "The domain owner's directory says this mailbox does not exist.",
	{types.StatusUndeliverable, types.SubGWorkspaceCatchAllInvalid}: "Google Workspace accepts every address for this domain; the specific mailbox could not be confirmed.",
	{types.StatusUndeliverable, types.SubTrainedMostlyInvalid}:      "Nearly every previously verified address on this domain was invalid.",

	{types.StatusRisky, types.SubCatchAll}:             "The domain accepts mail for any address, so this mailbox cannot be confirmed individually.",
	{types.StatusRisky, types.SubCatchAllOwnerMissing}: "The domain accepts any address, and the owner's directory does not know this mailbox.",
	{types.StatusRisky, types.SubGreylisted}:           "The mail server deferred the probe (greylisting); a later retry may succeed.",
	{types.StatusRisky, types.SubPolicyBlock}:          "The mail server rejected the probe for policy reasons (SPF, reputation or blocklist), not because of the mailbox.",
	{types.StatusRisky, types.SubMailboxFull}:          "The mailbox exists but is over quota; mail to it will bounce until cleared.",
	{types.StatusRisky, types.SubBankDomainPolicy}:     "Bank domains are never probed; treat this address with care.",
	{types.StatusRisky, types.SubHighRiskDomainPolicy}: "This domain is on the high-risk list and was not probed.",
	{types.StatusRisky, types.SubGatewayProtected}:     "A security gateway blocked the probe; the mailbox behind it could not be assessed.",
	{types.StatusRisky, types.SubGatewayProtectedBarracuda}: "Barracuda shields this domain; probe answers do not reflect the mailbox.",
	{types.StatusRisky, types.SubBarracudaUntrusted}:        "Barracuda accepted the recipient, but it accepts most recipients and filters later.",
	{types.StatusRisky, types.SubGWorkspaceCatchAllAmbiguous}: "Google Workspace routes every address for this domain somewhere; individual mailboxes cannot be confirmed.",
	{types.StatusRisky, types.SubGWorkspaceUnconfirmed}:       "Google Workspace accepted the recipient without corroborating evidence.",
	{types.StatusRisky, types.SubM365Ambiguous5xx}:            "Microsoft 365 rejected the probe with a generic error that often affects existing mailboxes.",
	{types.StatusRisky, types.SubAmbiguous}:                   "The mail server's answers were contradictory.",
	{types.StatusRisky, types.SubTrainedHighRisky}:            "This domain's verification history is mostly troubled despite the accept.",
	{types.StatusRisky, types.SubTrainedMostlyValid}:          "This domain's history is almost entirely valid; the ambiguous probe is likely noise.",

	{types.StatusUnknown, types.SubNetwork}:           "No mail server could be reached.",
	{types.StatusUnknown, types.SubAmbiguous}:         "The mail server gave no usable answer.",
	{types.StatusUnknown, types.SubGatewayHidden}:     "A security gateway hides this domain's mailboxes from probing.",
	{types.StatusUnknown, types.SubYahooGreylist}:     "Yahoo deferred the probe; Yahoo greylists most unknown senders.",
	{types.StatusUnknown, types.SubZohoPolicyUnknown}: "Zoho rejected the probe for policy reasons that say nothing about the mailbox.",
}

// reasonFor returns the catalog text for the verdict, strengthened when
// the owner's directory corroborates it.
func reasonFor(cls types.Classification, owner *types.OwnerVerdict) string {
	text, ok := reasons[reasonKey{cls.Status, cls.SubStatus}]
	if !ok {
		text = "The mail server's response did not match any known pattern."
	}
	if owner != nil && owner.Exists && cls.Status == types.StatusDeliverable && cls.SubStatus != types.SubOwnerVerified {
		text += " The domain owner's directory also confirms the mailbox."
	}
	return text
}
