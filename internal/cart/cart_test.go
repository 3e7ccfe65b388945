package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddCreatesAndIncrements(t *testing.T) {
	c := Cart{}

	c.Add("3_7")
	c.Add("3_7")
	c.Add("4_1")

	assert.Equal(t, 2, c["3_7"])
	assert.Equal(t, 1, c["4_1"])
	assert.Equal(t, 3, c.Count())
}

func TestRemoveRoundTripRestoresPriorQuantity(t *testing.T) {
	c := Cart{"3_7": 2}

	c.Add("3_7")
	assert.True(t, c.Remove("3_7"))
	assert.Equal(t, 2, c["3_7"])
}

func TestRemoveDeletesEntryAtZero(t *testing.T) {
	c := Cart{"3_7": 1}

	assert.True(t, c.Remove("3_7"))
	_, ok := c["3_7"]
	assert.False(t, ok)
	assert.True(t, c.Empty())
}

func TestRemoveAbsentEntryIsNoOp(t *testing.T) {
	c := Cart{"3_7": 1}

	assert.False(t, c.Remove("9_9"))
	assert.Equal(t, 1, c["3_7"])
}
