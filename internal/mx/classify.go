package mx

import (
	"regexp"
	"strings"

	"github.com/optimode/verifykit/types"
)

// providerRules map MX host substrings to the operator label and family.
// First match across the host list wins.
var providerRules = []struct {
	substr string
	label  string
	family types.ProviderFamily
}{
	{"google.com", "Google Workspace", types.FamilyGoogle},
	{"googlemail.com", "Google Workspace", types.FamilyGoogle},
	{"protection.outlook.com", "Microsoft 365", types.FamilyMicrosoft},
	{"outlook.com", "Microsoft 365", types.FamilyMicrosoft},
	{"hotmail.com", "Microsoft 365", types.FamilyMicrosoft},
	{"yahoodns.net", "Yahoo", types.FamilyYahoo},
	{"yahoo.com", "Yahoo", types.FamilyYahoo},
	{"zoho.com", "Zoho Mail", types.FamilyZoho},
	{"zoho.eu", "Zoho Mail", types.FamilyZoho},
	{"mimecast", "Mimecast", types.FamilyMimecast},
	{"pphosted.com", "Proofpoint", types.FamilyProofpoint},
	{"ppe-hosted.com", "Proofpoint", types.FamilyProofpoint},
	{"proofpoint.com", "Proofpoint", types.FamilyProofpoint},
	{"barracuda", "Barracuda", types.FamilyBarracuda},
	{"protonmail.ch", "ProtonMail", types.FamilyProton},
	{"proton.me", "ProtonMail", types.FamilyProton},
	{"amazonses.com", "Amazon SES", types.FamilySES},
	{"amazonaws.com", "Amazon SES", types.FamilySES},
}

// gatewayRules detect a security gateway fronting the mailbox host.
// First match wins; order follows detection specificity.
var gatewayRules = []struct {
	re      *regexp.Regexp
	gateway types.Gateway
}{
	{regexp.MustCompile(`mimecast`), types.GatewayMimecast},
	{regexp.MustCompile(`pphosted|ppe-hosted|proofpoint`), types.GatewayProofpoint},
	{regexp.MustCompile(`barracuda|ess\.barracudanetworks`), types.GatewayBarracuda},
	{regexp.MustCompile(`iphmx|ironport`), types.GatewayIronPort},
	{regexp.MustCompile(`topsec`), types.GatewayTopSec},
	{regexp.MustCompile(`messagelabs|symanteccloud`), types.GatewaySymantec},
	{regexp.MustCompile(`sophos`), types.GatewaySophos},
	{regexp.MustCompile(`protection\.outlook\.com`), types.GatewayEOP},
}

func classifyProvider(hosts []string) (string, types.ProviderFamily) {
	for _, rule := range providerRules {
		for _, host := range hosts {
			if strings.Contains(host, rule.substr) {
				return rule.label, rule.family
			}
		}
	}
	if len(hosts) > 0 {
		return "Custom/Unknown [" + hosts[0] + "]", types.FamilyCustom
	}
	return "Custom/Unknown", types.FamilyCustom
}

func classifyGateway(hosts []string) types.Gateway {
	for _, rule := range gatewayRules {
		for _, host := range hosts {
			if rule.re.MatchString(host) {
				return rule.gateway
			}
		}
	}
	return types.GatewayNone
}
