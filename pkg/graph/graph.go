// Package graph provides the dependency graph used to order workflow steps.
//
// Nodes are step identifiers and an edge from -> to records that "to" needs
// "from". The graph is rebuilt from a step list whenever it is needed; it keeps
// no history of which steps ran.
package graph

import "github.com/dukex/stepflow/pkg/models"

// Graph is a directed graph over step identifiers. Duplicate edges are kept,
// so in-degree counts every declared need.
type Graph struct {
	order        []string
	nodes        map[string]bool
	successors   map[string][]string
	predecessors map[string][]string
}

// CycleResult reports the outcome of DetectCycles. TopologicalOrder is set
// when HasCycle is false; otherwise Cycle lists, in insertion order, every
// node Kahn's algorithm could not emit.
type CycleResult struct {
	HasCycle         bool
	TopologicalOrder []string
	Cycle            []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[string]bool),
		successors:   make(map[string][]string),
		predecessors: make(map[string][]string),
	}
}

// FromSteps builds a graph with one node per step and an edge from every
// needed id to the step that needs it.
func FromSteps(steps []*models.Step) *Graph {
	g := New()

	for _, step := range steps {
		g.AddNode(step.ID)
	}

	for _, step := range steps {
		for _, needed := range step.Needs {
			g.AddEdge(needed, step.ID)
		}
	}

	return g
}

// AddNode registers a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if g.nodes[id] {
		return
	}

	g.nodes[id] = true
	g.order = append(g.order, id)
}

// AddEdge records that "to" depends on "from", registering both nodes.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)

	g.successors[from] = append(g.successors[from], to)
	g.predecessors[to] = append(g.predecessors[to], from)
}

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Predecessors returns the ids "id" depends on, in edge insertion order.
func (g *Graph) Predecessors(id string) []string {
	return append([]string(nil), g.predecessors[id]...)
}

// Successors returns the ids that depend on "id", in edge insertion order.
func (g *Graph) Successors(id string) []string {
	return append([]string(nil), g.successors[id]...)
}

// DetectCycles runs Kahn's algorithm. Nodes with zero in-degree are dequeued
// in insertion order, so the topological order is stable for a given input.
func (g *Graph) DetectCycles() CycleResult {
	inDegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		inDegree[id] = len(g.predecessors[id])
	}

	queue := make([]string, 0, len(g.order))

	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	emitted := make(map[string]bool, len(g.order))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		sorted = append(sorted, id)
		emitted[id] = true

		for _, next := range g.successors[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) == len(g.order) {
		return CycleResult{TopologicalOrder: sorted}
	}

	cycle := make([]string, 0, len(g.order)-len(sorted))

	for _, id := range g.order {
		if !emitted[id] {
			cycle = append(cycle, id)
		}
	}

	return CycleResult{HasCycle: true, Cycle: cycle}
}

// ReadySteps returns, in insertion order, every node not in completed whose
// predecessors are all in completed.
func (g *Graph) ReadySteps(completed map[string]bool) []string {
	ready := make([]string, 0)

	for _, id := range g.order {
		if completed[id] {
			continue
		}

		satisfied := true

		for _, needed := range g.predecessors[id] {
			if !completed[needed] {
				satisfied = false

				break
			}
		}

		if satisfied {
			ready = append(ready, id)
		}
	}

	return ready
}
