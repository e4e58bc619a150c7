package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/verifykit/internal/rank"
)

func TestBest_PicksHighest(t *testing.T) {
	got := rank.Best([]int{3, 9, 5}, func(n int) float64 { return float64(n) })
	assert.Equal(t, 9, got)
}

func TestBest_TieKeepsFirst(t *testing.T) {
	type round struct {
		name string
		conf float64
	}
	got := rank.Best([]round{{"a", 0.7}, {"b", 0.7}}, func(r round) float64 { return r.conf })
	assert.Equal(t, "a", got.name)
}

func TestBest_Empty(t *testing.T) {
	got := rank.Best(nil, func(n int) float64 { return float64(n) })
	assert.Equal(t, 0, got)
}

func TestFilter(t *testing.T) {
	got := rank.Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
}
