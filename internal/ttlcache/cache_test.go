package ttlcache_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/optimode/verifykit/internal/ttlcache"
)

func TestCache_GetSet(t *testing.T) {
	c := ttlcache.New[string](time.Minute, nil)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "one")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := ttlcache.New[int](time.Hour, clock)

	c.Set("a", 42)

	clock.Advance(30 * time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(31 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	c := ttlcache.New[string](time.Minute, nil)
	c.Set("a", "one")
	c.Set("a", "two")

	v, _ := c.Get("a")
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, c.Len())
}
