package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a circular dependency between keys.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	if len(e.Path) == 0 {
		fmt.Fprintf(&b, "    %s\n", e.Node.String())
		b.WriteString("      ↓\n")
		fmt.Fprintf(&b, "    %s (cycle)\n", e.Node.String())
	} else {
		for i, node := range e.Path {
			fmt.Fprintf(&b, "    %s\n", node.String())
			if i < len(e.Path)-1 {
				b.WriteString("      ↓\n")
			}
		}
		b.WriteString("      ↓\n")
		fmt.Fprintf(&b, "    %s (cycle)\n", e.Path[0].String())
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Inject a lazy accessor for one side of the cycle\n")
	b.WriteString("  • Move the shared state into a third registration\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}
