package main

import (
	"testing"

	"github.com/robmorgan/euclid/config"
	"github.com/stretchr/testify/assert"
)

func TestUniverses(t *testing.T) {
	t.Parallel()

	patch := []config.PatchedFixture{
		{Name: "a", Universe: 2},
		{Name: "b", Universe: 1},
		{Name: "c", Universe: 2},
	}
	assert.Equal(t, []int{1, 2}, universes(patch))
	assert.Empty(t, universes(nil))
}
