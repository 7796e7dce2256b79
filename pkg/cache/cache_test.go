package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cyberdna/pkg/metrics"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

type fakeLocator struct {
	coords     map[workflow.Address]workflow.Coordinate
	categories map[workflow.Address]string
}

func (f fakeLocator) CoordinateOrOrigin(addr workflow.Address) workflow.Coordinate {
	if c, ok := f.coords[addr]; ok {
		return c
	}
	return workflow.Origin
}

func (f fakeLocator) CategoryOf(addr workflow.Address) (string, bool) {
	c, ok := f.categories[addr]
	return c, ok
}

func newLocator() fakeLocator {
	return fakeLocator{
		coords: map[workflow.Address]workflow.Coordinate{
			"E1": {1, 2, 3},
			"E2": {4, 5, 6},
			"D1": {7, 8, 9},
		},
		categories: map[workflow.Address]string{
			"E1": "error",
			"E2": "error",
			"D1": "data",
		},
	}
}

func TestPutGet(t *testing.T) {
	c := New(newLocator(), nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	stored := c.Put("E1", "ok")
	assert.Equal(t, workflow.Coordinate{1, 2, 3}, stored.Coordinate)

	got, ok := c.Get("E1")
	require.True(t, ok)
	assert.Equal(t, "ok", got.Result)
	assert.Equal(t, fixed, got.Timestamp)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	c := New(newLocator(), nil)
	c.Put("D1", 1)
	c.Put("D1", 2)

	got, ok := c.Get("D1")
	require.True(t, ok)
	assert.Equal(t, 2, got.Result)
	assert.Equal(t, 1, c.Len())
}

func TestPutUnknownAddressUsesOrigin(t *testing.T) {
	c := New(newLocator(), nil)
	entry := c.Put("ghost", "x")
	assert.Equal(t, workflow.Origin, entry.Coordinate)

	noLocator := New(nil, nil)
	assert.Equal(t, workflow.Origin, noLocator.Put("E1", "x").Coordinate)
}

func TestEvictCategory(t *testing.T) {
	reg := metrics.NewRegistry()
	c := New(newLocator(), reg)
	c.Put("E1", "a")
	c.Put("E2", "b")
	c.Put("D1", "c")
	c.Put("ghost", "d")

	removed := c.EvictCategory("error")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("E1")
	assert.False(t, ok)
	_, ok = c.Get("E2")
	assert.False(t, ok)
	_, ok = c.Get("D1")
	assert.True(t, ok, "other categories are untouched")
	_, ok = c.Get("ghost")
	assert.True(t, ok, "unresolvable addresses are never evicted")
}

func TestEvictWithoutLocatorKeepsEverything(t *testing.T) {
	c := New(nil, nil)
	c.Put("E1", "a")
	assert.Equal(t, 0, c.EvictCategory("error"))
	assert.Equal(t, 1, c.Len())
}

func TestDeleteAndReset(t *testing.T) {
	c := New(newLocator(), nil)
	c.Put("E1", "a")
	c.Put("D1", "b")

	assert.True(t, c.Delete("E1"))
	assert.False(t, c.Delete("E1"))
	assert.ElementsMatch(t, []workflow.Address{"D1"}, c.Addresses())

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(newLocator(), nil)
	addrs := []workflow.Address{"E1", "E2", "D1"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				addr := addrs[(i+j)%len(addrs)]
				c.Put(addr, j)
				c.Get(addr)
				if j%25 == 0 {
					c.EvictCategory("error")
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), len(addrs))
}
