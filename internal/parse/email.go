// Package parse turns a raw address string into the pieces the engine
// works with: local part, ASCII domain for DNS/SMTP, Unicode domain for
// display. The check is deliberately loose; the SMTP probe is the real
// arbiter of deliverability.
package parse

import (
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// Email is a parsed address.
type Email struct {
	Raw           string // original trimmed input
	Local         string // part before @
	Domain        string // part after @, ASCII/Punycode form (for DNS/SMTP)
	DomainUnicode string // part after @, Unicode form (for display)
	Valid         bool   // false if Raw cannot be parsed
}

// NewEmail parses raw. On failure Valid is false but Raw is populated.
// Internationalized local parts (RFC 6531) and domains (IDNA2008) are
// supported.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	local, domain, ok := split(raw)
	if !ok {
		return Email{Raw: raw}
	}

	asciiDomain, unicodeDomain, ok := convertDomain(strings.ToLower(domain))
	if !ok {
		return Email{Raw: raw}
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        asciiDomain,
		DomainUnicode: unicodeDomain,
		Valid:         true,
	}
}

// Routable reports whether the address has the local@domain.tld shape
// required before any network activity is worth attempting.
func (e Email) Routable() bool {
	return e.Valid && strings.Contains(e.Domain, ".") && len(e.Raw) <= 254 && len(e.Local) <= 64
}

// Addr returns the address in local@ascii-domain form as sent on the wire.
func (e Email) Addr() string {
	return e.Local + "@" + e.Domain
}

// split separates local part and domain. net/mail handles the common
// ASCII forms; Unicode local parts (SMTPUTF8) fall back to a manual
// split on the last @.
func split(raw string) (local, domain string, ok bool) {
	if raw == "" {
		return "", "", false
	}

	addr, err := mail.ParseAddress(raw)
	if err != nil {
		addr, err = mail.ParseAddress("<" + raw + ">")
	}
	candidate := raw
	if err == nil {
		candidate = addr.Address
	}

	at := strings.LastIndex(candidate, "@")
	if at < 1 || at == len(candidate)-1 {
		return "", "", false
	}
	return candidate[:at], candidate[at+1:], true
}

// convertDomain produces both the ASCII/Punycode and Unicode forms.
// ok is false when a non-ASCII domain fails IDNA2008 validation.
func convertDomain(domain string) (ascii, unicode string, ok bool) {
	nonASCII := false
	for _, r := range domain {
		if r > 127 {
			nonASCII = true
			break
		}
	}

	if nonASCII {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return "", "", false
		}
		return a, domain, true
	}

	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}
