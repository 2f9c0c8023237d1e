package graph

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

// DependencyGraph manages the dependency relationships between resolution keys.
// It provides cycle detection and topological sorting.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[NodeKey]*Node
	order []NodeKey // insertion order, for deterministic traversal
}

// NodeKey uniquely identifies a node in the graph.
type NodeKey struct {
	Key any
}

// Node represents a registration in the dependency graph.
type Node struct {
	Key NodeKey

	// Kind describes how the node is produced, such as "Singleton".
	// Empty means nothing is registered for the key.
	Kind string

	InDegree  int // number of dependencies
	OutDegree int // number of dependents

	Dependencies []NodeKey // keys this node depends on
	Dependents   []NodeKey // keys that depend on this node
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[NodeKey]*Node),
	}
}

// AddNode adds key with its dependencies, replacing any previous edges for key.
// Dependencies that have no node yet are added as placeholders.
func (g *DependencyGraph) AddNode(key any, kind string, dependencies []any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodeKey := NodeKey{Key: key}
	node := g.ensure(nodeKey)
	node.Kind = kind

	node.Dependencies = make([]NodeKey, 0, len(dependencies))
	for _, dep := range dependencies {
		depKey := NodeKey{Key: dep}
		g.ensure(depKey)
		node.Dependencies = append(node.Dependencies, depKey)
	}

	g.updateDegrees()
}

func (g *DependencyGraph) ensure(key NodeKey) *Node {
	node, ok := g.nodes[key]
	if !ok {
		node = &Node{Key: key}
		g.nodes[key] = node
		g.order = append(g.order, key)
	}
	return node
}

// updateDegrees recalculates degrees and dependents for all nodes.
func (g *DependencyGraph) updateDegrees() {
	for _, node := range g.nodes {
		node.Dependents = node.Dependents[:0]
		node.OutDegree = 0
	}

	for _, key := range g.order {
		node := g.nodes[key]
		node.InDegree = len(node.Dependencies)
		for _, dep := range node.Dependencies {
			target := g.nodes[dep]
			target.Dependents = append(target.Dependents, key)
			target.OutDegree++
		}
	}
}

// Node returns the node for key, or nil.
func (g *DependencyGraph) Node(key any) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[NodeKey{Key: key}]
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns all nodes sorted by their string form.
func (g *DependencyGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sortedNodes()
}

func (g *DependencyGraph) sortedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, key := range g.order {
		nodes = append(nodes, g.nodes[key])
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Key.String() < nodes[j].Key.String()
	})
	return nodes
}

// TopologicalSort returns nodes in dependency order (dependencies first).
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Kahn's algorithm over the reversed edges: a node is ready once all
	// of its dependencies have been emitted.
	remaining := make(map[NodeKey]int, len(g.nodes))
	queue := make([]NodeKey, 0)
	for _, key := range g.order {
		remaining[key] = g.nodes[key].InDegree
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		result = append(result, node)

		for _, dependent := range node.Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if err := g.detectCycles(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("graph contains %d nodes but only %d could be sorted", len(g.nodes), len(result))
	}

	return result, nil
}

// DetectCycles returns a CircularDependencyError describing the first
// cycle found, or nil when the graph is acyclic.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.detectCycles()
}

// IsAcyclic reports whether the graph has no cycles.
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

const (
	unvisited = iota
	visiting
	visited
)

func (g *DependencyGraph) detectCycles() error {
	state := make(map[NodeKey]int, len(g.nodes))
	path := make([]NodeKey, 0)

	var visit func(key NodeKey) error
	visit = func(key NodeKey) error {
		switch state[key] {
		case visited:
			return nil
		case visiting:
			start := 0
			for i, k := range path {
				if k == key {
					start = i
					break
				}
			}
			cycle := make([]NodeKey, len(path)-start)
			copy(cycle, path[start:])
			return CircularDependencyError{Node: key, Path: cycle}
		}

		state[key] = visiting
		path = append(path, key)

		for _, dep := range g.nodes[key].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[key] = visited
		return nil
	}

	for _, key := range g.order {
		if err := visit(key); err != nil {
			return err
		}
	}

	return nil
}

// String returns a string representation of the node key.
func (k NodeKey) String() string {
	switch v := k.Key.(type) {
	case nil:
		return "<nil>"
	case string:
		return strconv.Quote(v)
	case reflect.Type:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String returns a string representation of the node.
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, in:%d, out:%d}", n.Key.String(), n.InDegree, n.OutDegree)
}
