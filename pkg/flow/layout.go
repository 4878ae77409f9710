package flow

import (
	"maps"
	"slices"
	"strings"
)

// Columns groups labels by tier for column-based placement. Labels within a
// tier are sorted lexicographically, so two calls on the same state always
// return the same order. Returns an empty map for an empty state.
func (s *State) Columns() map[int][]string {
	cols := make(map[int][]string)
	for label, tier := range s.tiers {
		cols[tier] = append(cols[tier], label)
	}
	for _, labels := range cols {
		slices.Sort(labels)
	}
	return cols
}

// TierIDs returns the distinct tier values in ascending order.
func (s *State) TierIDs() []int {
	seen := make(map[int]struct{})
	for _, t := range s.tiers {
		seen[t] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// MaxTier returns the highest tier, or 0 for an empty state.
func (s *State) MaxTier() int {
	m := 0
	for _, t := range s.tiers {
		m = max(m, t)
	}
	return m
}

// HasCycle reports whether the edge set contains at least one directed cycle.
// A self-loop counts as a cycle. Runs in O(N+E) using depth-first search with
// white/gray/black coloring.
func (s *State) HasCycle() bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(s.tiers))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, next := range s.outgoing[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for id := range s.tiers {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// Flatten replaces the line breaks of a display label with spaces.
func Flatten(label string) string {
	return strings.ReplaceAll(label, "\n", " ")
}
