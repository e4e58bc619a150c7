package verifykit_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/verifykit"
	"github.com/optimode/verifykit/internal/smtpconn"
	"github.com/optimode/verifykit/types"
)

func stableConfig() verifykit.Config {
	cfg := testConfig()
	cfg.RoundPause = time.Millisecond
	cfg.RoundBudget = time.Minute
	cfg.DisableEscalation = true
	return cfg
}

func TestVerifyStable_InvalidStopsAfterOneRound(t *testing.T) {
	sc := newScript(
		&rule{match: "RCPT TO:<user@", replies: []string{"550 5.1.1 User unknown"}},
		&rule{match: "RCPT TO:<vk-", replies: []string{"550 5.1.1 User unknown"}},
	)
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := verifykit.New(stableConfig()).WithResolver(r).WithDialer(sc.dialer())

	res, err := v.VerifyStable(context.Background(), "user@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "invalid", res.Category)
	assert.Len(t, res.Rounds, 1)
}

func TestVerifyStable_ConsecutiveAgreementStopsEarly(t *testing.T) {
	sc := newScript() // catch-all, every round answers risky
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := verifykit.New(stableConfig()).WithResolver(r).WithDialer(sc.dialer())

	res, err := v.VerifyStable(context.Background(), "user@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "risky", res.Category)
	assert.Len(t, res.Rounds, 2)
	assert.Equal(t, res.Rounds[0].Category, res.Rounds[1].Category)
	assert.InDelta(t, 1.0, res.Agreement(), 1e-9)
}

func TestVerifyStable_InvalidDominatesEarlierUnknown(t *testing.T) {
	sc := newScript(
		&rule{match: "RCPT TO:<user@", replies: []string{"550 5.1.1 User unknown"}},
		&rule{match: "RCPT TO:<vk-", replies: []string{"550 5.1.1 User unknown"}},
	)
	inner := sc.dialer()
	var dials atomic.Int64
	// the first connection attempt fails, later ones reach the script
	dialer := smtpconn.Dialer(func(network, address string, timeout time.Duration) (net.Conn, error) {
		if dials.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return inner(network, address, timeout)
	})

	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := verifykit.New(stableConfig()).WithResolver(r).WithDialer(dialer)

	res, err := v.VerifyStable(context.Background(), "user@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "invalid", res.Category)
	assert.Equal(t, types.SubMailboxNotFound, res.SubStatus)
	require.Len(t, res.Rounds, 2)
	assert.Equal(t, "unknown", res.Rounds[0].Category)
	assert.Equal(t, "invalid", res.Rounds[1].Category)
}

func TestVerifyStable_PolicyShortcutNeverRepeats(t *testing.T) {
	cfg := stableConfig()
	cfg.BankDomains = []string{"bigbank.com"}
	sc := newScript()
	r := &fakeResolver{mxHosts: []string{"mx.bigbank.com"}}
	v := verifykit.New(cfg).WithResolver(r).WithDialer(sc.dialer())

	res, err := v.VerifyStable(context.Background(), "ceo@bigbank.com")
	require.NoError(t, err)
	assert.Equal(t, types.SubBankDomainPolicy, res.SubStatus)
	assert.Len(t, res.Rounds, 1)
	assert.Equal(t, int64(0), sc.dials.Load())
}

func TestVerifyStable_SyntaxShortcut(t *testing.T) {
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := verifykit.New(stableConfig()).WithResolver(r).WithDialer(newScript().dialer())

	res, err := v.VerifyStable(context.Background(), "nonsense")
	require.NoError(t, err)
	assert.Equal(t, "invalid", res.Category)
	assert.Equal(t, types.SubSyntax, res.SubStatus)
	assert.Len(t, res.Rounds, 1)
}

func TestVerifyStable_CanceledContextReportsError(t *testing.T) {
	sc := newScript()
	r := &fakeResolver{mxHosts: []string{"mx.acme.com"}}
	v := verifykit.New(stableConfig()).WithResolver(r).WithDialer(sc.dialer())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.VerifyStable(ctx, "user@acme.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), sc.dials.Load())
}

func TestVerifyStable_MissingIdentity(t *testing.T) {
	_, err := verifykit.New(verifykit.Config{}).VerifyStable(context.Background(), "user@acme.com")
	assert.ErrorIs(t, err, verifykit.ErrInvalidConfig)
}
