package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prodpulse/prodmeter/internal/types"
)

func TestScoreCacheRoundTrip(t *testing.T) {
	c := NewScoreCache(time.Minute)
	defer c.Close()

	_, ok := c.Get("2026-03-01")
	assert.False(t, ok)

	c.Set(types.ScoreRecord{Date: "2026-03-01", Composite: 72.5})
	got, ok := c.Get("2026-03-01")
	assert.True(t, ok)
	assert.InDelta(t, 72.5, got.Composite, 1e-9)
	assert.Equal(t, 1, c.Size())
}

func TestScoreCacheInvalidate(t *testing.T) {
	c := NewScoreCache(time.Minute)
	defer c.Close()

	c.Set(types.ScoreRecord{Date: "2026-03-01", Composite: 72.5})
	c.Set(types.ScoreRecord{Date: "2026-03-02", Composite: 60})

	c.Invalidate("2026-03-01")
	_, ok := c.Get("2026-03-01")
	assert.False(t, ok)
	_, ok = c.Get("2026-03-02")
	assert.True(t, ok)
}

func TestScoreCacheExpiry(t *testing.T) {
	c := NewScoreCache(10 * time.Millisecond)
	defer c.Close()

	c.Set(types.ScoreRecord{Date: "2026-03-01", Composite: 72.5})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("2026-03-01")
	assert.False(t, ok)
}
