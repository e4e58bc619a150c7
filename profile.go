package verifykit

import (
	"github.com/optimode/verifykit/internal/mx"
	"github.com/optimode/verifykit/internal/parse"
	"github.com/optimode/verifykit/internal/probe"
	"github.com/optimode/verifykit/types"
)

// applyProfile reshapes the verdict according to the behavior quirks of
// the mailbox operator family. Each family has one adjuster; the first
// rule that matches inside it wins.
func (v *Validator) applyProfile(out probe.Outcome, parsed parse.Email, rec mx.Record) probe.Outcome {
	switch rec.Family {
	case types.FamilyGoogle:
		return v.profileGoogle(out, parsed)
	case types.FamilyMicrosoft:
		return v.profileMicrosoft(out)
	case types.FamilyYahoo:
		return v.profileYahoo(out)
	case types.FamilyZoho:
		return v.profileZoho(out)
	}
	return out
}

// catchAllFlavored reports whether the sub-status says "the domain
// accepts anything", in any of its spellings.
func catchAllFlavored(sub string) bool {
	switch sub {
	case types.SubCatchAll, types.SubCatchAllOwnerMissing,
		types.SubGWorkspaceCatchAllAmbiguous, types.SubGWorkspaceCatchAllInvalid:
		return true
	}
	return false
}

// profileGoogle handles Google Workspace. Workspace domains answer 250
// to every RCPT when the admin enabled the catch-all routing rule, so a
// catch-all verdict there says nothing about the one mailbox asked for.
func (v *Validator) profileGoogle(out probe.Outcome, parsed parse.Email) probe.Outcome {
	corporate := v.corporate(parsed.Domain)

	if catchAllFlavored(out.Class.SubStatus) {
		if corporate {
			if v.cfg.StrictProviderPolicy {
				out.Class = types.Classification{Status: types.StatusUndeliverable, SubStatus: types.SubGWorkspaceCatchAllInvalid}
			} else {
				out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubGWorkspaceCatchAllAmbiguous}
			}
		} else {
			out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubAmbiguous}
		}
		return out
	}

	if v.cfg.StrictProviderPolicy && corporate &&
		out.Class.Status == types.StatusDeliverable &&
		!out.Signals.RealBeatsBogus && !out.Signals.NullAgreesDeliverable &&
		out.Class.SubStatus != types.SubOwnerVerified {
		out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubGWorkspaceUnconfirmed}
	}
	return out
}

// profileMicrosoft handles Microsoft 365 / Exchange Online. Its
// transport rules produce generic 5xx errors for addresses that do
// exist, so an unexplained 5xx stays risky unless strict mode is on.
func (v *Validator) profileMicrosoft(out probe.Outcome) probe.Outcome {
	if v.cfg.StrictProviderPolicy {
		return out
	}
	if out.Class.Is(types.StatusUndeliverable, types.Sub5xxOther) {
		out.Class = types.Classification{Status: types.StatusRisky, SubStatus: types.SubM365Ambiguous5xx}
	}
	return out
}

// profileYahoo handles Yahoo, which greylists unknown probe sources far
// more aggressively than it rejects unknown mailboxes.
func (v *Validator) profileYahoo(out probe.Outcome) probe.Outcome {
	if v.cfg.StrictProviderPolicy {
		return out
	}
	if out.Class.Is(types.StatusRisky, types.SubGreylisted) {
		out.Class = types.Classification{Status: types.StatusUnknown, SubStatus: types.SubYahooGreylist}
	}
	return out
}

// profileZoho handles Zoho Mail, whose policy rejections carry no
// information about the individual mailbox.
func (v *Validator) profileZoho(out probe.Outcome) probe.Outcome {
	if v.cfg.StrictProviderPolicy {
		return out
	}
	if out.Class.Status == types.StatusRisky && out.Class.SubStatus == types.SubPolicyBlock {
		out.Class = types.Classification{Status: types.StatusUnknown, SubStatus: types.SubZohoPolicyUnknown}
	}
	return out
}
