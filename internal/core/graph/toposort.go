// Package graph orders a declared plugin set so that every sync target is
// processed before its dependents. Entries with no sync relationship keep
// their manifest order; ties are never broken by name, so an unchanged
// manifest yields an unchanged processing order across runs.
package graph

import (
	"fmt"

	"github.com/plugmate/plugmate/internal/core/domain"
)

// Node is one declared plugin. After is the sync target the node must follow;
// HasEdge distinguishes "no sync relationship" from a declared sync to an
// empty target, which is always invalid.
type Node struct {
	ID      string
	After   string
	HasEdge bool
}

// Validate rejects sync graphs that cannot be ordered: a sync target missing
// from the declared set, or a sync cycle. It must be called before any
// network or file activity so a bad manifest causes zero mutation.
func Validate(nodes []Node) error {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		if !n.HasEdge {
			continue
		}
		if _, ok := byID[n.After]; !ok {
			return fmt.Errorf("plugin %q syncs to %q which is not in the manifest: %w", n.ID, n.After, domain.ErrNotFound)
		}
	}
	// Follow sync chains; a node revisited on the current path is a cycle.
	for _, n := range nodes {
		path := []string{n.ID}
		onPath := map[string]bool{n.ID: true}
		cur := n
		for cur.HasEdge {
			next := byID[cur.After]
			if onPath[next.ID] {
				return domain.CircularDependencyError(append(path, next.ID))
			}
			path = append(path, next.ID)
			onPath[next.ID] = true
			cur = next
		}
	}
	return nil
}

// Order returns the node IDs topologically sorted over sync edges, with
// manifest order preserved among nodes whose relative order the edges do not
// constrain. The input must already have passed Validate; an unorderable
// graph still surfaces as a CircularDependency error rather than looping.
func Order(nodes []Node) ([]string, error) {
	emitted := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	remaining := len(nodes)

	for remaining > 0 {
		progressed := false
		for _, n := range nodes {
			if emitted[n.ID] {
				continue
			}
			if n.HasEdge && !emitted[n.After] {
				continue
			}
			emitted[n.ID] = true
			order = append(order, n.ID)
			remaining--
			progressed = true
		}
		if !progressed {
			stuck := make([]string, 0, remaining)
			for _, n := range nodes {
				if !emitted[n.ID] {
					stuck = append(stuck, n.ID)
				}
			}
			return nil, domain.CircularDependencyError(stuck)
		}
	}
	return order, nil
}
