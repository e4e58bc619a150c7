package verifykit

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Identity is one sender identity used for probing. Providers that
// throttle or block a given HELO/MAIL FROM pair sometimes answer a
// different identity cleanly, so ambiguous probes are retried across
// identities.
type Identity struct {
	// HeloName is the domain sent in the EHLO command, e.g. "verifier.example.com".
	HeloName string
	// MailFrom is the address sent in the MAIL FROM command, e.g. "probe@verifier.example.com".
	MailFrom string
}

// Config configures a Validator. The zero value is not usable; start
// from DefaultConfig (or ConfigFromEnv) and set at least HeloName and
// MailFrom, or provide Identities.
type Config struct {
	// HeloName is the default EHLO domain. Required unless Identities is set.
	HeloName string `env:"VERIFYKIT_HELO_NAME"`
	// MailFrom is the default MAIL FROM address. Required unless Identities is set.
	MailFrom string `env:"VERIFYKIT_MAIL_FROM"`
	// AltMailFrom, when set, is retried as the sender after the primary
	// MAIL FROM is rejected for policy reasons.
	AltMailFrom string `env:"VERIFYKIT_ALT_MAIL_FROM"`
	// Identities are additional HELO/MAIL FROM pairs tried in order when
	// a probe stays ambiguous. When empty, HeloName/MailFrom form the
	// single identity.
	Identities []Identity

	// Port is the SMTP port. Default: "25"
	Port string `env:"VERIFYKIT_SMTP_PORT" env-default:"25"`
	// ConnectTimeout is the maximum time for the TCP connection. Default: 5s
	ConnectTimeout time.Duration `env:"VERIFYKIT_CONNECT_TIMEOUT" env-default:"5s"`
	// CommandTimeout is the maximum response time per SMTP exchange. Default: 10s
	CommandTimeout time.Duration `env:"VERIFYKIT_COMMAND_TIMEOUT" env-default:"10s"`

	// GreylistRetries is how often a 4xx RCPT is re-issued within the
	// same session. -1 disables retrying. Default: 2
	GreylistRetries int `env:"VERIFYKIT_GREYLIST_RETRIES" env-default:"2"`
	// GreylistDelay is the pause between greylist retries. Default: 2s
	GreylistDelay time.Duration `env:"VERIFYKIT_GREYLIST_DELAY" env-default:"2s"`

	// MaxMXHosts is how many MX hosts are tried in priority order. Default: 3
	MaxMXHosts int `env:"VERIFYKIT_MAX_MX_HOSTS" env-default:"3"`
	// MaxIdentities caps how many identities one verification may consume. Default: 2
	MaxIdentities int `env:"VERIFYKIT_MAX_IDENTITIES" env-default:"2"`
	// AttemptsPerIdentity is how many probe attempts each identity gets
	// per host. Default: 1
	AttemptsPerIdentity int `env:"VERIFYKIT_ATTEMPTS_PER_IDENTITY" env-default:"1"`
	// IdentityPause is the pause before switching to the next identity. Default: 250ms
	IdentityPause time.Duration `env:"VERIFYKIT_IDENTITY_PAUSE" env-default:"250ms"`

	// SkipCatchAllProbe ends the session on a clean accept instead of
	// running the catch-all probe (fast exit). Default: false
	SkipCatchAllProbe bool `env:"VERIFYKIT_SKIP_CATCH_ALL_PROBE"`
	// DisableEscalation stops ambiguous probes from being rerun on a
	// fresh socket. Default: false
	DisableEscalation bool `env:"VERIFYKIT_DISABLE_ESCALATION"`
	// DisableGatewaySoftening keeps hard failures behind a detected
	// security gateway as-is instead of reinterpreting them as gateway
	// interference. Default: false
	DisableGatewaySoftening bool `env:"VERIFYKIT_DISABLE_GATEWAY_SOFTENING"`
	// PromoteGatewayCatchAll upgrades a corporate catch-all verdict behind
	// a gateway to valid. Default: false
	PromoteGatewayCatchAll bool `env:"VERIFYKIT_PROMOTE_GATEWAY_CATCH_ALL"`
	// TrustBarracuda accepts bare deliverable verdicts behind Barracuda.
	// By default they stay risky, since Barracuda accepts first and
	// filters later. Default: false
	TrustBarracuda bool `env:"VERIFYKIT_TRUST_BARRACUDA"`
	// StrictProviderPolicy makes the provider profiles pessimistic:
	// ambiguity at well-known providers becomes invalid or risky instead
	// of being softened. Default: false
	StrictProviderPolicy bool `env:"VERIFYKIT_STRICT_PROVIDER_POLICY"`

	// BankDomains are domains (or "." suffixes) never probed over SMTP;
	// they get a fixed risky verdict.
	BankDomains []string `env:"VERIFYKIT_BANK_DOMAINS"`
	// HighRiskDomains work like BankDomains with their own sub-status.
	HighRiskDomains []string `env:"VERIFYKIT_HIGH_RISK_DOMAINS"`

	// MXCacheTTL is how long MX resolution results are cached. Default: 1h
	MXCacheTTL time.Duration `env:"VERIFYKIT_MX_CACHE_TTL" env-default:"1h"`

	// OwnerEndpoints maps a domain to an owner-verification URL. Not
	// settable from the environment.
	OwnerEndpoints map[string]string
	// OwnerTimeout is the HTTP timeout per owner lookup. Default: 4s
	OwnerTimeout time.Duration `env:"VERIFYKIT_OWNER_TIMEOUT" env-default:"4s"`
	// OwnerCacheTTL is how long owner answers are cached. Default: 10m
	OwnerCacheTTL time.Duration `env:"VERIFYKIT_OWNER_CACHE_TTL" env-default:"10m"`

	// TrainingMinSamples is how many recorded outcomes a domain needs
	// before history adjusts verdicts. Default: 20
	TrainingMinSamples int `env:"VERIFYKIT_TRAINING_MIN_SAMPLES" env-default:"20"`

	// Rounds is the maximum verification rounds for VerifyStable. Default: 3
	Rounds int `env:"VERIFYKIT_ROUNDS" env-default:"3"`
	// RoundBudget is the total time budget across rounds. Default: 9s
	RoundBudget time.Duration `env:"VERIFYKIT_ROUND_BUDGET" env-default:"9s"`
	// RoundPause is the pause between rounds. Default: 800ms
	RoundPause time.Duration `env:"VERIFYKIT_ROUND_PAUSE" env-default:"800ms"`
	// RiskyMargin is how much more confident a risky round must be to
	// override a valid round during reconciliation. Default: 0.15
	RiskyMargin float64 `env:"VERIFYKIT_RISKY_MARGIN" env-default:"0.15"`
	// MinRiskyRounds is how many risky rounds are needed before risky can
	// override valid. Default: 2
	MinRiskyRounds int `env:"VERIFYKIT_MIN_RISKY_ROUNDS" env-default:"2"`
}

// DefaultConfig returns a Config with every tunable at its default.
// HeloName and MailFrom are left empty and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Port:                "25",
		ConnectTimeout:      5 * time.Second,
		CommandTimeout:      10 * time.Second,
		GreylistRetries:     2,
		GreylistDelay:       2 * time.Second,
		MaxMXHosts:          3,
		MaxIdentities:       2,
		AttemptsPerIdentity: 1,
		IdentityPause:       250 * time.Millisecond,
		MXCacheTTL:          time.Hour,
		OwnerTimeout:        4 * time.Second,
		OwnerCacheTTL:       10 * time.Minute,
		TrainingMinSamples:  20,
		Rounds:              3,
		RoundBudget:         9 * time.Second,
		RoundPause:          800 * time.Millisecond,
		RiskyMargin:         0.15,
		MinRiskyRounds:      2,
	}
}

// ConfigFromEnv reads a Config from VERIFYKIT_* environment variables,
// falling back to the defaults for unset variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// withDefaults fills zero-valued tunables so a hand-built Config with
// only HeloName/MailFrom set behaves like DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = def.CommandTimeout
	}
	if c.GreylistRetries == 0 {
		c.GreylistRetries = def.GreylistRetries
	}
	if c.GreylistDelay == 0 {
		c.GreylistDelay = def.GreylistDelay
	}
	if c.MaxMXHosts == 0 {
		c.MaxMXHosts = def.MaxMXHosts
	}
	if c.MaxIdentities == 0 {
		c.MaxIdentities = def.MaxIdentities
	}
	if c.AttemptsPerIdentity == 0 {
		c.AttemptsPerIdentity = def.AttemptsPerIdentity
	}
	if c.IdentityPause == 0 {
		c.IdentityPause = def.IdentityPause
	}
	if c.MXCacheTTL == 0 {
		c.MXCacheTTL = def.MXCacheTTL
	}
	if c.OwnerTimeout == 0 {
		c.OwnerTimeout = def.OwnerTimeout
	}
	if c.OwnerCacheTTL == 0 {
		c.OwnerCacheTTL = def.OwnerCacheTTL
	}
	if c.TrainingMinSamples == 0 {
		c.TrainingMinSamples = def.TrainingMinSamples
	}
	if c.Rounds == 0 {
		c.Rounds = def.Rounds
	}
	if c.RoundBudget == 0 {
		c.RoundBudget = def.RoundBudget
	}
	if c.RoundPause == 0 {
		c.RoundPause = def.RoundPause
	}
	if c.RiskyMargin == 0 {
		c.RiskyMargin = def.RiskyMargin
	}
	if c.MinRiskyRounds == 0 {
		c.MinRiskyRounds = def.MinRiskyRounds
	}
	return c
}

// identities returns the identity rotation: the primary HeloName/MailFrom
// pair followed by any explicitly configured identities.
func (c Config) identities() []Identity {
	var ids []Identity
	if c.HeloName != "" && c.MailFrom != "" {
		ids = append(ids, Identity{HeloName: c.HeloName, MailFrom: c.MailFrom})
	}
	for _, id := range c.Identities {
		if id.HeloName != "" && id.MailFrom != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
