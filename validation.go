package di

import (
	"io"

	"github.com/junioryono/di/internal/graph"
)

// Validate checks the registrations visible from c for dependency cycles
// without constructing anything. Lazy dependencies do not count as edges.
func (c *Container) Validate() error {
	return c.buildGraph().DetectCycles()
}

// WriteGraph writes the registrations visible from c and their
// dependencies in Graphviz DOT format.
func (c *Container) WriteGraph(w io.Writer) error {
	return graph.NewVisualizer(c.buildGraph()).WriteDOT(w)
}

func (c *Container) buildGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph()

	visible := make(map[Key]*Resolver)
	order := make([]Key, 0)
	for current := c; current != nil; current = current.parent {
		current.mu.RLock()
		for key, resolver := range current.resolvers {
			if key == IContainer || key == containerType {
				continue
			}
			if _, ok := visible[key]; !ok {
				visible[key] = resolver
				order = append(order, key)
			}
		}
		current.mu.RUnlock()
	}

	// Classes reached only as dependencies would register themselves on
	// first use; they are added with their own dependencies.
	pending := make([]*Class, 0)
	added := make(map[Key]bool, len(order))

	addClassDeps := func(deps []Key) []any {
		out := make([]any, 0, len(deps))
		for _, dep := range deps {
			target, ok := dependencyTarget(dep)
			if !ok {
				continue
			}
			out = append(out, target)
			if class, isClass := target.(*Class); isClass {
				if _, registered := visible[class]; !registered {
					pending = append(pending, class)
				}
			}
		}
		return out
	}

	for _, key := range order {
		resolver := visible[key]
		g.AddNode(key, resolver.Strategy().String(), addClassDeps(resolverDependencies(resolver)))
		added[key] = true
	}

	for len(pending) > 0 {
		class := pending[0]
		pending = pending[1:]
		if added[class] {
			continue
		}
		added[class] = true
		g.AddNode(class, class.lifetime.String(), addClassDeps(classKeys(class)))
	}

	return g
}

// resolverDependencies returns the keys a resolver resolves when asked
// for its value.
func resolverDependencies(r *Resolver) []Key {
	switch r.Strategy() {
	case Singleton, Transient:
		class, err := r.class()
		if err != nil {
			return nil
		}
		return classKeys(class)
	case Alias:
		return []Key{r.state}
	case Array:
		var deps []Key
		for _, element := range r.Resolvers() {
			deps = append(deps, resolverDependencies(element)...)
		}
		return deps
	default:
		return nil
	}
}

func classKeys(class *Class) []Key {
	keys := GetDependencies(class)
	for _, field := range class.fields {
		keys = append(keys, field.key)
	}
	return keys
}

// dependencyTarget maps a dependency key to the key it resolves eagerly.
func dependencyTarget(key Key) (Key, bool) {
	if validateKey(key) != nil {
		return nil, false
	}
	switch k := key.(type) {
	case allKey:
		return dependencyTarget(k.key)
	case optionalKey:
		return dependencyTarget(k.key)
	case lazyKey:
		return nil, false
	}
	return key, true
}
