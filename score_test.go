package verifykit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/verifykit/types"
)

func TestVerify_ScoreAndConfidenceRanges(t *testing.T) {
	sc := newScript(&rule{match: "RCPT TO:<vk-", replies: []string{"550 no"}})
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := newTestValidator(t, testConfig(), sc, r)

	inputs := []string{"user@acme.com", "not-an-email", "admin@acme.com"}
	for _, in := range inputs {
		res, err := v.Verify(context.Background(), in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, 0, in)
		assert.LessOrEqual(t, res.Score, 100, in)
		assert.GreaterOrEqual(t, res.Confidence, 0.0, in)
		assert.LessOrEqual(t, res.Confidence, 0.99, in)
		assert.NotEmpty(t, res.Reason, in)
		assert.NotEmpty(t, res.StatusLabel, in)
	}
}

func TestVerify_RoleAccountScoresLower(t *testing.T) {
	sc := newScript(&rule{match: "RCPT TO:<vk-", replies: []string{"550 no"}})
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := newTestValidator(t, testConfig(), sc, r)

	person, err := v.Verify(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	role, err := v.Verify(context.Background(), "info@acme.com")
	require.NoError(t, err)

	assert.Equal(t, person.Category, role.Category)
	assert.Less(t, role.Score, person.Score)
	assert.True(t, role.Flags.RoleAccount)
}

func TestVerify_M365Generic5xxSoftened(t *testing.T) {
	sc := newScript(
		&rule{match: "RCPT TO:<user@", replies: []string{"550 5.7.606 Access denied, banned sending IP"}},
		&rule{match: "RCPT TO:<vk-", replies: []string{"550 5.7.606 Access denied, banned sending IP"}},
	)
	r := &fakeResolver{mxHosts: []string{"acme-com.mail.protection.outlook.com"}}
	v := newTestValidator(t, testConfig(), sc, r)

	res, err := v.Verify(context.Background(), "user@acme.com")
	require.NoError(t, err)
	// a policy rejection at Microsoft says nothing about the mailbox
	assert.NotEqual(t, "invalid", res.Category)
}

func TestVerify_YahooGreylistBecomesUnknown(t *testing.T) {
	cfg := testConfig()
	cfg.GreylistRetries = 1
	cfg.GreylistDelay = time.Millisecond
	sc := newScript(
		&rule{match: "RCPT TO:<user@", replies: []string{
			"451 4.7.1 Try again later",
			"451 4.7.1 Try again later",
			"451 4.7.1 Try again later",
			"451 4.7.1 Try again later",
		}},
	)
	r := &fakeResolver{mxHosts: []string{"mta5.am0.yahoodns.net"}}
	v := newTestValidator(t, cfg, sc, r)

	res, err := v.Verify(context.Background(), "user@yahoo.com")
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Category)
	assert.Equal(t, types.SubYahooGreylist, res.SubStatus)
	assert.True(t, res.Provisional)
}

func TestVerify_StrictGoogleCatchAllIsInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.StrictProviderPolicy = true
	sc := newScript()
	r := &fakeResolver{mxHosts: []string{"aspmx.l.google.com"}}
	v := newTestValidator(t, cfg, sc, r)

	res, err := v.Verify(context.Background(), "user@corp-acme.com")
	require.NoError(t, err)
	assert.Equal(t, "invalid", res.Category)
	assert.Equal(t, types.SubGWorkspaceCatchAllInvalid, res.SubStatus)
}
