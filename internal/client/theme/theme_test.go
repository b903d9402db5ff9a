package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	assert.Equal(t, Emerald, Next(Gold))
	assert.Equal(t, Mono, Next(Emerald))
	assert.Equal(t, Gold, Next(Mono))
	assert.Equal(t, Gold, Next(""))
	assert.Equal(t, Gold, Next("neon"))
}

func TestByName(t *testing.T) {
	for _, n := range Names {
		assert.Equal(t, n, ByName(n).Name)
		assert.True(t, Valid(n))
	}
	assert.Equal(t, Gold, ByName("neon").Name)
	assert.False(t, Valid("neon"))
}
