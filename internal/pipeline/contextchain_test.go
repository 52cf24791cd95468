package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextChain_PushAndRecent(t *testing.T) {
	c := NewContextChain(10)
	c.Push("research", "first question", "first digest")
	c.Push("followup", "second question", "second digest")

	recent := c.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "first question", recent[0].Query)
	assert.Equal(t, "second question", recent[1].Query)

	one := c.Recent(1)
	require.Len(t, one, 1)
	assert.Equal(t, "second question", one[0].Query)
}

func TestContextChain_EvictsOldest(t *testing.T) {
	c := NewContextChain(3)
	for i := range 5 {
		c.Push("research", fmt.Sprintf("q%d", i), "digest")
	}

	assert.Equal(t, 3, c.Len())
	recent := c.Recent(0)
	assert.Equal(t, "q2", recent[0].Query)
	assert.Equal(t, "q4", recent[2].Query)
}

func TestContextChain_Clear(t *testing.T) {
	c := NewContextChain(0)
	c.Push("research", "q", "d")
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Recent(0))
}

func TestContextChain_RecentCopyIsIsolated(t *testing.T) {
	c := NewContextChain(5)
	c.Push("research", "q", "d")

	got := c.Recent(0)
	got[0].Query = "mutated"
	assert.Equal(t, "q", c.Recent(0)[0].Query)
}
