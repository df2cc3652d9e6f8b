// Copyright 2025 James Ross
package jobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionCreateGetUpdateDelete(t *testing.T) {
	c := NewCollection[string]()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Create("a", "hello")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	assert.True(t, c.Update("a", "world"))
	v, _ = c.Get("a")
	assert.Equal(t, "world", v)

	assert.False(t, c.Update("missing", "x"))

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Exists("a"))
	assert.False(t, c.Delete("a"))
}

func TestCollectionListPaginatesAndSorts(t *testing.T) {
	c := NewCollection[int]()
	for i := 0; i < 5; i++ {
		c.Create(string(rune('a'+i)), i)
	}

	less := func(a, b int) bool { return a > b }
	page, total := c.List(nil, less, 0, 2)
	assert.Equal(t, 5, total)
	assert.Equal(t, []int{4, 3}, page)

	page, total = c.List(nil, less, 4, 2)
	assert.Equal(t, 5, total)
	assert.Equal(t, []int{0}, page)

	page, _ = c.List(nil, less, 10, 2)
	assert.Empty(t, page)
}

func TestCollectionCountMatching(t *testing.T) {
	c := NewCollection[int]()
	c.Create("a", 1)
	c.Create("b", 2)
	c.Create("c", 3)

	n := c.CountMatching(func(v int) bool { return v > 1 })
	assert.Equal(t, 2, n)
}

func TestCollectionMutate(t *testing.T) {
	c := NewCollection[int]()
	c.Create("a", 1)

	assert.True(t, c.Mutate("a", func(v int) int { return v + 10 }))
	v, _ := c.Get("a")
	assert.Equal(t, 11, v)

	assert.False(t, c.Mutate("missing", func(v int) int { return v }))
}
