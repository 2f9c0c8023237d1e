package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph.
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer.
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format.
// Output is deterministic for a given graph.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	nodes := v.graph.sortedNodes()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	nodeIDs := make(map[NodeKey]string, len(nodes))
	for i, node := range nodes {
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[node.Key] = nodeID

		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeID, v.formatNodeLabel(node), v.getNodeColor(node))
	}

	for _, node := range nodes {
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[node.Key], nodeIDs[dep])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node.
func (v *Visualizer) formatNodeLabel(node *Node) string {
	label := strings.ReplaceAll(node.Key.String(), `"`, `\"`)
	if node.Kind == "" {
		return fmt.Sprintf("%s\\n(unregistered)", label)
	}
	return fmt.Sprintf("%s\\n%s", label, node.Kind)
}

// getNodeColor determines the color for a node based on its kind.
func (v *Visualizer) getNodeColor(node *Node) string {
	switch node.Kind {
	case "":
		return "lightgray"
	case "Singleton":
		return "lightblue"
	case "Transient":
		return "lightyellow"
	case "Instance":
		return "lightgreen"
	default:
		return "white"
	}
}
