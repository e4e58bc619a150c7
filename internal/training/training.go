// Package training accumulates per-domain verification history.
// Domains with enough recorded outcomes feed heuristic adjustments:
// a domain that has answered invalid for almost every address probed
// is unlikely to suddenly host a deliverable mailbox, and the history
// says so even when a single SMTP conversation is ambiguous.
package training

import (
	"strings"
	"sync"

	"github.com/optimode/verifykit/types"
)

// MemoryStore keeps training counters in process memory. It is safe
// for concurrent use. Callers that need persistence can implement the
// same Stats/Record surface over their own storage.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]types.TrainingStats
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{domains: make(map[string]types.TrainingStats)}
}

// Record adds one outcome for domain under the given category
// (valid, invalid, risky or unknown). Unrecognized categories still
// count toward the total.
func (s *MemoryStore) Record(domain, category string) {
	domain = strings.ToLower(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.domains[domain]
	st.Total++
	switch category {
	case "valid":
		st.Valid++
	case "invalid":
		st.Invalid++
	case "risky":
		st.Risky++
	case "unknown":
		st.Unknown++
	}
	s.domains[domain] = st
}

// Stats returns the accumulated counters for domain. ok is false when
// the domain has never been recorded.
func (s *MemoryStore) Stats(domain string) (types.TrainingStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.domains[strings.ToLower(domain)]
	return st, ok
}
