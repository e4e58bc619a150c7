// Package domainlist classifies domains and local parts against embedded
// reference lists: disposable mailbox providers, free mailbox providers
// and role-account local parts.
package domainlist

import (
	"strings"

	"github.com/optimode/verifykit/internal/levenshtein"
)

// freeProviders are the major consumer mailbox operators. Domains outside
// this list (and the disposable list) are treated as corporate.
var freeProviders = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {},
	"yahoo.com": {}, "yahoo.co.uk": {}, "yahoo.fr": {}, "yahoo.de": {}, "ymail.com": {},
	"outlook.com": {}, "hotmail.com": {}, "hotmail.co.uk": {}, "live.com": {}, "msn.com": {},
	"icloud.com": {}, "me.com": {}, "mac.com": {},
	"protonmail.com": {}, "proton.me": {},
	"aol.com":    {},
	"zoho.com":   {},
	"yandex.com": {}, "yandex.ru": {},
	"mail.com": {},
	"gmx.com":  {}, "gmx.net": {}, "gmx.de": {},
	"fastmail.com": {},
	"tutanota.com": {},
}

// roleLocals are local parts that denote a function rather than a person.
var roleLocals = map[string]struct{}{
	"admin": {}, "administrator": {}, "postmaster": {}, "hostmaster": {}, "webmaster": {},
	"abuse": {}, "noc": {}, "security": {},
	"info": {}, "contact": {}, "hello": {}, "enquiries": {},
	"support": {}, "help": {}, "helpdesk": {},
	"sales": {}, "marketing": {}, "billing": {}, "accounts": {}, "finance": {},
	"hr": {}, "jobs": {}, "careers": {}, "recruitment": {},
	"office": {}, "mail": {}, "team": {}, "staff": {},
	"noreply": {}, "no-reply": {}, "donotreply": {},
}

// typoTargets are the providers worth suggesting when a domain is one or
// two edits away from them.
var typoTargets = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "outlook.com", "hotmail.com", "live.com",
	"icloud.com", "protonmail.com", "aol.com", "zoho.com",
	"yandex.com", "gmx.com", "fastmail.com",
}

// IsDisposable reports whether domain is a known throwaway provider.
func IsDisposable(domain string) bool {
	_, ok := disposableSet[strings.ToLower(domain)]
	return ok
}

// IsFree reports whether domain is a major free mailbox provider.
func IsFree(domain string) bool {
	_, ok := freeProviders[strings.ToLower(domain)]
	return ok
}

// IsRole reports whether local denotes a role account rather than a person.
func IsRole(local string) bool {
	_, ok := roleLocals[strings.ToLower(local)]
	return ok
}

// Suggest returns the closest known provider when domain looks like a typo
// of one, or "" when it doesn't.
func Suggest(domain string) string {
	return levenshtein.Closest(strings.ToLower(domain), typoTargets, 2)
}
