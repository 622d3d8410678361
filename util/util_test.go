package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, Clamp(-1, 0, 2))
	assert.Equal(2, Clamp(3, 0, 2))
	assert.Equal(1, Clamp(1, 0, 2))
	assert.Equal(0, Clamp(5, 0, 0))
}

func TestClampPanicsOnEmptyRange(t *testing.T) {
	assert.Panics(t, func() { Clamp(0, 0, -1) })
}

func TestInRange(t *testing.T) {
	assert := assert.New(t)
	assert.True(InRange(0, 1))
	assert.False(InRange(1, 1))
	assert.False(InRange(-1, 3))
	assert.False(InRange(0, 0))
}

func TestGetKeysSorted(t *testing.T) {
	m := map[string]int{"reel": 2, "jig": 1, "hornpipe": 3}
	assert.Equal(t, []string{"hornpipe", "jig", "reel"}, GetKeysSorted(m))
	assert.Equal(t, uint64(6), Sum([]int{1, 2, 3}))
}
