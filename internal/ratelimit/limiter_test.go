package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLimiter(1, 3)
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "burst request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(1, 1)
	defer l.Close()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}
