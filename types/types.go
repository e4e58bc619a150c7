// Package types contains the shared types for verifykit.
// This package does not import anything from other verifykit packages
// to avoid circular imports.
package types

import "fmt"

// Status is the internal verdict of a validation.
type Status string

const (
	StatusDeliverable   Status = "deliverable"
	StatusUndeliverable Status = "undeliverable"
	StatusRisky         Status = "risky"
	StatusUnknown       Status = "unknown"
)

// Category maps the internal status to the externally reported category.
func (s Status) Category() string {
	switch s {
	case StatusDeliverable:
		return "valid"
	case StatusUndeliverable:
		return "invalid"
	case StatusRisky:
		return "risky"
	default:
		return "unknown"
	}
}

// Sub-status tags. The (status, sub-status) pair drives provider-profile
// adjustment and reason-text lookup.
const (
	SubAccepted        = "accepted"
	SubGreylisted      = "greylisted"
	SubAmbiguous       = "ambiguous"
	SubMailboxNotFound = "mailbox_not_found"
	Sub5xxOther        = "5xx_other"
	SubPolicyBlock     = "policy_block_spf"
	SubMailboxFull     = "mailbox_full"
	SubCatchAll        = "catch_all"
	SubNetwork         = "network"
	SubSyntax          = "syntax"
	SubNoMXOrA         = "no_mx_or_a"

	SubBankDomainPolicy     = "bank_domain_policy"
	SubHighRiskDomainPolicy = "high_risk_domain_policy"

	SubGatewayProtected          = "gateway_protected"
	SubGatewayProtectedBarracuda = "gateway_protected_barracuda"
	SubGatewayAccepted           = "gateway_accepted"
	SubGatewayHidden             = "gateway_hidden"
	SubBarracudaUntrusted        = "barracuda_deliverable_untrusted"

	SubOwnerVerified        = "owner_verified"
	SubOwnerVerifiedMissing = "owner_verified_missing"
	SubCatchAllOwnerMissing = "catch_all_owner_says_missing"

	SubGWorkspaceCatchAllAmbiguous = "gworkspace_catchall_ambiguous"
	SubGWorkspaceCatchAllInvalid   = "gworkspace_catchall_invalid"
	SubGWorkspaceUnconfirmed       = "gworkspace_deliverable_unconfirmed"
	SubM365Ambiguous5xx            = "m365_ambiguous_5xx"
	SubYahooGreylist               = "yahoo_greylist"
	SubZohoPolicyUnknown           = "zoho_policy_unknown"

	SubTrainedMostlyInvalid = "trained_domain_mostly_invalid"
	SubTrainedHighRisky     = "trained_domain_high_risky_history"
	SubTrainedMostlyValid   = "trained_domain_mostly_valid_but_smtp_ambiguous"
)

// Classification is a (status, sub-status) verdict pair.
type Classification struct {
	Status    Status `json:"status"`
	SubStatus string `json:"subStatus"`
}

// Is reports whether the classification matches the given pair.
func (c Classification) Is(s Status, sub string) bool {
	return c.Status == s && c.SubStatus == sub
}

// EnhancedCode is an enhanced mail system status code as defined in
// RFC 3463, formatted class.subject.detail (e.g. 5.1.1).
type EnhancedCode struct {
	Class   int `json:"class"`
	Subject int `json:"subject"`
	Detail  int `json:"detail"`
}

// String returns the code formatted as "X.Y.Z".
func (e EnhancedCode) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Class, e.Subject, e.Detail)
}

// IsZero reports whether the code is absent.
func (e EnhancedCode) IsZero() bool {
	return e.Class == 0 && e.Subject == 0 && e.Detail == 0
}

// rank orders success codes by how specifically they vouch for the
// mailbox: 2.1.5 (destination address valid) beats other 2.1.x address
// codes, which beat any other 2.x.x, which beat no code at all.
func (e EnhancedCode) rank() int {
	if e.Class != 2 {
		return 0
	}
	switch {
	case e.Subject == 1 && e.Detail == 5:
		return 3
	case e.Subject == 1:
		return 2
	default:
		return 1
	}
}

// Outranks reports whether e vouches for the mailbox strictly more
// specifically than other.
func (e EnhancedCode) Outranks(other EnhancedCode) bool {
	return e.rank() > other.rank()
}

// Signals is the evidence bundle gathered by one mailbox probe.
// Ephemeral, one per probe invocation.
type Signals struct {
	RealCode  EnhancedCode `json:"realCode"`
	BogusCode EnhancedCode `json:"bogusCode"`
	NullCode  EnhancedCode `json:"nullCode"`

	RealBeatsBogus          bool `json:"realBeatsBogus"`
	NullAgreesDeliverable   bool `json:"nullAgreesDeliverable"`
	NullAgreesUndeliverable bool `json:"nullAgreesUndeliverable"`
}

// ProviderFamily is the enumerated behavior family of a mailbox operator,
// derived once from the MX host names.
type ProviderFamily string

const (
	FamilyGoogle     ProviderFamily = "google"
	FamilyMicrosoft  ProviderFamily = "microsoft"
	FamilyYahoo      ProviderFamily = "yahoo"
	FamilyZoho       ProviderFamily = "zoho"
	FamilyProton     ProviderFamily = "proton"
	FamilySES        ProviderFamily = "ses"
	FamilyMimecast   ProviderFamily = "mimecast"
	FamilyProofpoint ProviderFamily = "proofpoint"
	FamilyBarracuda  ProviderFamily = "barracuda"
	FamilyCustom     ProviderFamily = "custom"
)

// EnterpriseGateway reports whether the family is a filtering relay in
// front of the real mailbox host. Those keep being cross-checked even
// after a clean accept.
func (f ProviderFamily) EnterpriseGateway() bool {
	switch f {
	case FamilyMimecast, FamilyProofpoint, FamilyBarracuda:
		return true
	}
	return false
}

// Gateway is a security gateway detected in front of the mailbox server.
type Gateway string

const (
	GatewayNone       Gateway = ""
	GatewayMimecast   Gateway = "mimecast"
	GatewayProofpoint Gateway = "proofpoint"
	GatewayBarracuda  Gateway = "barracuda"
	GatewayIronPort   Gateway = "ironport"
	GatewayTopSec     Gateway = "topsec"
	GatewaySymantec   Gateway = "symantec"
	GatewaySophos     Gateway = "sophos"
	GatewayEOP        Gateway = "eop"
)

// Trusted reports whether a catch-all-positive accept behind this gateway
// is still believable: the relay verifies recipients upstream before
// accepting them.
func (g Gateway) Trusted() bool {
	return g == GatewayProofpoint || g == GatewayEOP
}

// TrainingStats are per-domain aggregates of previously observed
// validation outcomes, supplied by an external store.
type TrainingStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Risky   int `json:"risky"`
	Unknown int `json:"unknown"`
}

func (s TrainingStats) ratio(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total)
}

// ValidRatio is the share of previously valid outcomes.
func (s TrainingStats) ValidRatio() float64 { return s.ratio(s.Valid) }

// InvalidRatio is the share of previously invalid outcomes.
func (s TrainingStats) InvalidRatio() float64 { return s.ratio(s.Invalid) }

// TroubledRatio is the share of previously invalid or risky outcomes.
func (s TrainingStats) TroubledRatio() float64 { return s.ratio(s.Invalid + s.Risky) }

// OwnerVerdict is the answer of an owner-verification endpoint.
// A nil *OwnerVerdict means no opinion.
type OwnerVerdict struct {
	Exists  bool           `json:"exists"`
	Payload map[string]any `json:"payload,omitempty"`
}
