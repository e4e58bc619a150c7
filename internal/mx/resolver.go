// Package mx resolves a domain's mail exchangers, labels the hosting
// provider and any security gateway in front of them, and caches the
// result per domain with a TTL.
package mx

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/optimode/verifykit/internal/ttlcache"
	"github.com/optimode/verifykit/types"
)

// Resolver is the DNS surface the engine needs. *net.Resolver satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Record is the classified MX set for one domain.
type Record struct {
	Hosts    []string // exchange host names ordered by priority
	Provider string   // human-readable operator label
	Family   types.ProviderFamily
	Gateway  types.Gateway
}

// Client resolves and classifies with a read-through TTL cache.
type Client struct {
	resolver Resolver
	cache    *ttlcache.Cache[Record]
	timeout  time.Duration
}

// New creates a client with the given lookup timeout and cache TTL.
func New(timeout, ttl time.Duration, clock clockwork.Clock) *Client {
	return NewWithResolver(timeout, ttl, clock, &net.Resolver{})
}

// NewWithResolver creates a client with a custom resolver (for testing).
func NewWithResolver(timeout, ttl time.Duration, clock clockwork.Clock, r Resolver) *Client {
	return &Client{
		resolver: r,
		cache:    ttlcache.New[Record](ttl, clock),
		timeout:  timeout,
	}
}

// Resolve returns the classified MX set for domain. On DNS failure the
// host list is empty; the caller decides whether an A record still makes
// the domain reachable.
func (c *Client) Resolve(ctx context.Context, domain string) Record {
	domain = strings.ToLower(domain)
	if rec, ok := c.cache.Get(domain); ok {
		return rec
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupMX(lookupCtx, domain)
	if err != nil {
		records = nil
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })

	rec := Record{}
	for _, r := range records {
		host := strings.ToLower(strings.TrimSuffix(r.Host, "."))
		if host != "" {
			rec.Hosts = append(rec.Hosts, host)
		}
	}
	rec.Provider, rec.Family = classifyProvider(rec.Hosts)
	rec.Gateway = classifyGateway(rec.Hosts)

	c.cache.Set(domain, rec)
	return rec
}

// HasAddress reports whether the domain itself resolves to at least one
// address, distinguishing "no mail service" from "no such domain".
func (c *Client) HasAddress(ctx context.Context, domain string) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addrs, err := c.resolver.LookupHost(lookupCtx, domain)
	return err == nil && len(addrs) > 0
}
