package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditions(t *testing.T) {
	var c conditions
	assert.True(t, c.active())

	c.enterIf(false, 1)
	assert.Equal(t, Search, c.state)
	c.enterIf(true, 2)
	assert.Equal(t, Ignore, c.state, "nested conditionals in a dead region are ignored")
	c.enterElif(true)
	assert.Equal(t, Ignore, c.state)
	assert.True(t, c.exitIf())
	assert.Equal(t, Search, c.state)

	c.enterElif(false)
	assert.Equal(t, Search, c.state)
	c.enterElif(true)
	assert.Equal(t, Active, c.state)
	c.enterElif(true)
	assert.Equal(t, Ignore, c.state, "a matched chain never re-arms")
	assert.Equal(t, 1, c.openLine())
	assert.True(t, c.exitIf())
	assert.Equal(t, Active, c.state)
	assert.Equal(t, 0, c.depth())
	assert.False(t, c.exitIf())

	c.enterIf(true, 3)
	c.enterIf(false, 4)
	c.unwind(0)
	assert.Equal(t, 0, c.depth())
	assert.Equal(t, Active, c.state)

	c.enterIf(false, 5)
	c.reset()
	assert.True(t, c.active())
	assert.Equal(t, 0, c.depth())
}

func TestBranchStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "search", Search.String())
	assert.Equal(t, "ignore", Ignore.String())
}
