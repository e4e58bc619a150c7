package parse_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/verifykit/internal/parse"
)

func TestNewEmail_ASCII(t *testing.T) {
	e := parse.NewEmail("user@example.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "user", e.Local)
	assert.Equal(t, "example.com", e.Domain)
	assert.Equal(t, "example.com", e.DomainUnicode)
	assert.Equal(t, "user@example.com", e.Addr())
}

func TestNewEmail_Whitespace(t *testing.T) {
	e := parse.NewEmail("  user@example.com  ")
	assert.True(t, e.Valid)
	assert.Equal(t, "user", e.Local)
}

func TestNewEmail_Invalid(t *testing.T) {
	tests := []string{
		"",
		"noatsign",
		"@nodomain",
		"nolocal@",
	}
	for _, raw := range tests {
		e := parse.NewEmail(raw)
		assert.False(t, e.Valid, "expected invalid for %q", raw)
	}
}

func TestEmail_Routable(t *testing.T) {
	assert.True(t, parse.NewEmail("user@example.com").Routable())

	// parses, but no TLD: not worth a network round trip
	assert.False(t, parse.NewEmail("user@localhost").Routable())
	assert.False(t, parse.NewEmail("not-an-email").Routable())

	long := strings.Repeat("a", 65) + "@example.com"
	assert.False(t, parse.NewEmail(long).Routable())
}

func TestNewEmail_IDN_UnicodeDomain(t *testing.T) {
	// Unicode domain goes to Punycode in Domain, stays Unicode in DomainUnicode
	e := parse.NewEmail("user@münchen.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_IDN_PunycodeDomain(t *testing.T) {
	e := parse.NewEmail("user@xn--mnchen-3ya.de")
	assert.True(t, e.Valid)
	assert.Equal(t, "xn--mnchen-3ya.de", e.Domain)
	assert.Equal(t, "münchen.de", e.DomainUnicode)
}

func TestNewEmail_EAI_UnicodeLocal(t *testing.T) {
	// Unicode local part (RFC 6531 SMTPUTF8)
	e := parse.NewEmail("用户@example.com")
	assert.True(t, e.Valid)
	assert.Equal(t, "用户", e.Local)
	assert.Equal(t, "example.com", e.Domain)
}

func TestNewEmail_DomainCaseNormalization(t *testing.T) {
	e := parse.NewEmail("user@EXAMPLE.COM")
	assert.True(t, e.Valid)
	assert.Equal(t, "example.com", e.Domain)
}
