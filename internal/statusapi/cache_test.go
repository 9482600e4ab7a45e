package statusapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opswarden/warden/internal/supervisor"
)

func TestCacheGetReturnsIndependentCopy(t *testing.T) {
	c := NewCache()
	c.Publish(map[string]supervisor.Snapshot{"test": {Phase: "Stopped"}})

	snap, _ := c.Get()
	snap["test"] = supervisor.Snapshot{Phase: "Serving"}

	again, _ := c.Get()
	require.Contains(t, again, "test")
	assert.Equal(t, "Stopped", again["test"].Phase)
}
