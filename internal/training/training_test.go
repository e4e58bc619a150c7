package training_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/verifykit/internal/training"
)

func TestMemoryStore_RecordAndStats(t *testing.T) {
	s := training.NewMemoryStore()

	_, ok := s.Stats("acme.com")
	assert.False(t, ok)

	s.Record("acme.com", "valid")
	s.Record("acme.com", "valid")
	s.Record("acme.com", "invalid")
	s.Record("acme.com", "risky")
	s.Record("ACME.com", "unknown")

	st, ok := s.Stats("Acme.COM")
	assert.True(t, ok)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.Valid)
	assert.Equal(t, 1, st.Invalid)
	assert.Equal(t, 1, st.Risky)
	assert.Equal(t, 1, st.Unknown)
	assert.InDelta(t, 0.4, st.ValidRatio(), 1e-9)
	assert.InDelta(t, 0.4, st.TroubledRatio(), 1e-9)
}

func TestMemoryStore_UnknownCategoryCountsTotal(t *testing.T) {
	s := training.NewMemoryStore()
	s.Record("acme.com", "bogus")

	st, ok := s.Stats("acme.com")
	assert.True(t, ok)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 0, st.Valid+st.Invalid+st.Risky+st.Unknown)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := training.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record("acme.com", "valid")
		}()
	}
	wg.Wait()

	st, _ := s.Stats("acme.com")
	assert.Equal(t, 50, st.Total)
	assert.Equal(t, 50, st.Valid)
}
