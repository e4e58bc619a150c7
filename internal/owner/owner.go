// Package owner queries per-domain owner-verification endpoints.
// Some domain operators expose a lookup service that says whether a
// mailbox exists regardless of what the SMTP conversation revealed;
// a positive or negative answer from such a service outranks the
// probe verdict. Domains without a configured endpoint, and any
// transport or decode failure, yield no opinion.
package owner

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/optimode/verifykit/internal/ttlcache"
	"github.com/optimode/verifykit/types"
)

// Client asks owner-verification endpoints about mailbox existence.
// Answers are cached per address so repeated checks of the same email
// do not hammer the endpoint.
type Client struct {
	endpoints map[string]string
	http      *http.Client
	cache     *ttlcache.Cache[*types.OwnerVerdict]
}

// New creates a Client for the given domain→URL endpoint map. The map
// may be nil or empty, in which case Check always returns no opinion.
// A nil clock means wall time.
func New(endpoints map[string]string, timeout, cacheTTL time.Duration, clock clockwork.Clock) *Client {
	normalized := make(map[string]string, len(endpoints))
	for domain, url := range endpoints {
		normalized[strings.ToLower(domain)] = url
	}
	return &Client{
		endpoints: normalized,
		http:      &http.Client{Timeout: timeout},
		cache:     ttlcache.New[*types.OwnerVerdict](cacheTTL, clock),
	}
}

// Check asks the endpoint configured for domain whether email exists.
// It returns nil when no endpoint is configured or the endpoint could
// not be consulted.
func (c *Client) Check(ctx context.Context, email, domain string) *types.OwnerVerdict {
	url, ok := c.endpoints[strings.ToLower(domain)]
	if !ok {
		return nil
	}
	key := strings.ToLower(email)
	if v, ok := c.cache.Get(key); ok {
		return v
	}

	verdict := c.query(ctx, url, email)
	if verdict != nil {
		c.cache.Set(key, verdict)
	}
	return verdict
}

func (c *Client) query(ctx context.Context, url, email string) *types.OwnerVerdict {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}
	exists, ok := payload["exists"].(bool)
	if !ok {
		return nil
	}
	return &types.OwnerVerdict{Exists: exists, Payload: payload}
}
