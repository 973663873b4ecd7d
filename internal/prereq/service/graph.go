package service

import (
	"fmt"

	"laurel/internal/prereq/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// adjacency maps a course to its direct requirement edges. Lists come from
// the store already ordered by required course ID, so every traversal is
// deterministic.
type adjacency map[id.CourseID][]*models.Prerequisite

func buildAdjacency(edges []*models.Prerequisite) adjacency {
	g := make(adjacency, len(edges))
	for _, edge := range edges {
		g[edge.CourseID] = append(g[edge.CourseID], edge)
	}
	return g
}

// countNodes returns the number of distinct courses mentioned by the edge
// set plus any extra endpoints.
func countNodes(edges []*models.Prerequisite, extra ...id.CourseID) int {
	seen := make(map[id.CourseID]struct{}, len(edges)*2)
	for _, edge := range edges {
		seen[edge.CourseID] = struct{}{}
		seen[edge.RequiredCourseID] = struct{}{}
	}
	for _, courseID := range extra {
		seen[courseID] = struct{}{}
	}
	return len(seen)
}

func errGraphDepth() error {
	return dErrors.New(dErrors.CodeGraphTooLarge, "prerequisite chain exceeds maximum traversal depth")
}

// pathExists reports whether `to` is reachable from `from` over any edge,
// mandatory or not. Acyclicity is a property of the whole graph, so the
// insertion-time check follows every edge. Each node is visited once.
func pathExists(g adjacency, from, to id.CourseID, maxDepth int) (bool, error) {
	visited := make(map[id.CourseID]struct{})

	var walk func(node id.CourseID, depth int) (bool, error)
	walk = func(node id.CourseID, depth int) (bool, error) {
		if depth > maxDepth {
			return false, errGraphDepth()
		}
		if node == to {
			return true, nil
		}
		if _, done := visited[node]; done {
			return false, nil
		}
		visited[node] = struct{}{}
		for _, edge := range g[node] {
			found, err := walk(edge.RequiredCourseID, depth+1)
			if err != nil || found {
				return found, err
			}
		}
		return false, nil
	}
	return walk(from, 0)
}

// mandatoryClosure returns every course transitively required by courseID
// through mandatory edges, excluding courseID itself. Visited courses are
// memoized within the call, so diamond-shaped graphs cost each node once.
func mandatoryClosure(g adjacency, courseID id.CourseID, maxDepth int) ([]id.CourseID, error) {
	visited := map[id.CourseID]struct{}{courseID: {}}
	out := make([]id.CourseID, 0)

	var walk func(node id.CourseID, depth int) error
	walk = func(node id.CourseID, depth int) error {
		if depth > maxDepth {
			return errGraphDepth()
		}
		for _, edge := range g[node] {
			if !edge.Mandatory {
				continue
			}
			required := edge.RequiredCourseID
			if _, done := visited[required]; done {
				continue
			}
			visited[required] = struct{}{}
			out = append(out, required)
			if err := walk(required, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(courseID, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Three-color traversal state, held in a transient map per call and never
// persisted with the edges.
type mark uint8

const (
	markUnvisited mark = iota
	markInProgress
	markDone
)

// topologicalPath orders courseID's mandatory closure so every course
// appears after all of its prerequisites, ending with courseID itself.
// A cycle yields CodeCycleDetected; the insertion-time guard should make
// that unreachable.
func topologicalPath(g adjacency, courseID id.CourseID, maxDepth int) ([]id.CourseID, error) {
	marks := make(map[id.CourseID]mark)
	out := make([]id.CourseID, 0)

	var visit func(node id.CourseID, depth int) error
	visit = func(node id.CourseID, depth int) error {
		if depth > maxDepth {
			return errGraphDepth()
		}
		switch marks[node] {
		case markDone:
			return nil
		case markInProgress:
			return dErrors.New(dErrors.CodeCycleDetected, fmt.Sprintf("prerequisite graph has a cycle through %s", node))
		}
		marks[node] = markInProgress
		for _, edge := range g[node] {
			if !edge.Mandatory {
				continue
			}
			if err := visit(edge.RequiredCourseID, depth+1); err != nil {
				return err
			}
		}
		marks[node] = markDone
		out = append(out, node)
		return nil
	}
	if err := visit(courseID, 0); err != nil {
		return nil, err
	}
	return out, nil
}
