package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLRUCache_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clk.now)

	c.Set("a", "1")
	c.SetWithTTL("b", "2", time.Hour)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	clk.t = clk.t.Add(2 * time.Minute)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.Equal(t, 1, c.Size())

	clk.t = clk.t.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))

	c.Delete("a")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_AddKeepsLiveEntries(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](2, time.Hour).WithClock(clk.now)

	require.True(t, c.Add("a", 1, time.Minute))
	require.True(t, c.Add("b", 2, time.Hour))
	assert.False(t, c.Add("c", 3, time.Hour), "full of live entries")
	assert.True(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Add("b", 20, time.Hour), "existing key is replaced")

	clk.t = clk.t.Add(2 * time.Minute)
	assert.True(t, c.Add("c", 3, time.Hour), "expired entry makes room")
	assert.False(t, c.Contains("a"))
	assert.Equal(t, 2, c.Size())
}

func TestManager_CleanAll(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewLRUCache[struct{}](4, time.Second).WithClock(clk.now)
	c.Set("x", struct{}{})
	c.Set("y", struct{}{})

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	clk.t = clk.t.Add(time.Minute)
	assert.Equal(t, 2, m.CleanAll())
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.Stop()
}
