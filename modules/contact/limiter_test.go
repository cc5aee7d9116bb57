package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(6, 2, 10*time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("203.0.113.7"))
	assert.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("203.0.113.7"))
	assert.True(t, rl.Allow("198.51.100.2"), "clients have separate buckets")

	now = now.Add(10 * time.Second)
	assert.True(t, rl.Allow("203.0.113.7"), "one token refills every ten seconds")
	assert.False(t, rl.Allow("203.0.113.7"))

	now = now.Add(11 * time.Minute)
	rl.Allow("192.0.2.1")
	assert.Equal(t, 1, rl.Len(), "idle clients are swept")
}
