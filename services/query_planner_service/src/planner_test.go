package planner

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinimumSpanningForestConnected(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	edges := []Edge{
		{From: "a", To: "b", Cost: 1},
		{From: "b", To: "c", Cost: 2},
		{From: "a", To: "c", Cost: 5},
	}
	mst := minimumSpanningForest(nodes, edges)
	assert.Len(t, mst, 2)

	var total float64
	for _, e := range mst {
		total += e.Cost
	}
	assert.Equal(t, 3.0, total)
}

func TestMinimumSpanningForestDisconnected(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	edges := []Edge{
		{From: "a", To: "b", Cost: 1},
		{From: "c", To: "d", Cost: 1},
	}
	mst := minimumSpanningForest(nodes, edges)
	assert.Len(t, mst, 2)
}

func TestConnectedComponentsGrouping(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	edges := []Edge{{From: "a", To: "b", Cost: 1}}
	groups := connectedComponents(nodes, edges)
	assert.Len(t, groups, 3)

	var sizes []int
	for _, g := range groups {
		sizes = append(sizes, len(g))
	}
	sort.Ints(sizes)
	assert.Equal(t, []int{1, 1, 2}, sizes)
}

func TestAssessQueryComplexityBoundaries(t *testing.T) {
	assert.Equal(t, ComplexitySimple, assessComplexity(1, 0, 500))
	assert.Equal(t, ComplexityModerate, assessComplexity(3, 2, 5000))
	assert.Equal(t, ComplexityComplex, assessComplexity(5, 4, 50000))
	assert.Equal(t, ComplexityVeryComplex, assessComplexity(8, 8, 2000000))
}
