package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, g Generator) []Grouping {
	t.Helper()
	var out []Grouping
	for {
		c, ok := g.Next()
		if !ok {
			return out
		}
		out = append(out, c.(Grouping))
	}
}

func TestPartitionsBellNumbers(t *testing.T) {
	// Bell numbers count the partitions of an n-element set.
	cases := map[int]int{1: 1, 2: 2, 3: 5, 4: 15, 5: 52}
	names := []string{"a", "b", "c", "d", "e"}
	for n, want := range cases {
		got := drain(t, Partitions(names[:n], 1, 0))
		assert.Len(t, got, want, "partitions of %d elements", n)
	}
}

func TestPartitionsOrderAndShape(t *testing.T) {
	got := drain(t, Partitions([]string{"a", "b", "c"}, 1, 0))
	require.Len(t, got, 5)

	// First everyone together, last all singletons; deterministic in between.
	assert.Equal(t, [][]string{{"a", "b", "c"}}, got[0].Groups)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, got[1].Groups)
	assert.Equal(t, [][]string{{"a", "c"}, {"b"}}, got[2].Groups)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, got[3].Groups)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, got[4].Groups)
}

func TestPartitionsKeysDistinct(t *testing.T) {
	got := drain(t, Partitions([]string{"a", "b", "c", "d"}, 1, 0))
	seen := make(map[string]bool)
	for _, g := range got {
		require.False(t, seen[g.Key()], "duplicate partition %s", g.Key())
		seen[g.Key()] = true
	}
}

func TestPartitionsSizeBounds(t *testing.T) {
	// Groups of at least 2: only {abc} and nothing else for 3 elements
	// besides the pairs-with-singleton shapes, which a singleton rules out.
	got := drain(t, Partitions([]string{"a", "b", "c"}, 2, 0))
	require.Len(t, got, 1)
	assert.Equal(t, [][]string{{"a", "b", "c"}}, got[0].Groups)

	// Max size 2 drops the all-together grouping.
	got = drain(t, Partitions([]string{"a", "b", "c"}, 1, 2))
	assert.Len(t, got, 4)
}

func TestPartitionsEmpty(t *testing.T) {
	g := Partitions(nil, 1, 0)
	_, ok := g.Next()
	assert.False(t, ok)
}

func TestPartitionsExhaustion(t *testing.T) {
	g := Partitions([]string{"a"}, 1, 0)
	c, ok := g.Next()
	require.True(t, ok)
	assert.Equal(t, "a", c.Key())

	_, ok = g.Next()
	assert.False(t, ok)
	// Stays exhausted.
	_, ok = g.Next()
	assert.False(t, ok)
}

func TestGroupingKeyAndString(t *testing.T) {
	g := Grouping{Groups: [][]string{{"a", "b"}, {"c"}}}
	assert.Equal(t, "a,b|c", g.Key())
	assert.Equal(t, "{a b} {c}", g.String())
}
