package di

import (
	"sync/atomic"

	"github.com/junioryono/di/internal/graph"
)

// frame is one resolver being resolved. done is set when it leaves the
// stack, so that snapshots taken by nested resolutions can tell whether
// it is still in progress.
type frame struct {
	resolver *Resolver
	done     atomic.Bool
}

// resolution tracks the resolvers currently being resolved on one call
// path. Entering a resolver already on the stack is a cycle.
//
// A resolution started from inside a Callback or a Lazy accessor carries
// the frames of the resolution it was started from in origin. Re-entering
// a resolver whose frame there is still in progress is a cycle as well.
type resolution struct {
	origin []*frame
	stack  []*frame
}

func newResolution() *resolution {
	return &resolution{}
}

// lineage is a snapshot of the frames in progress at some point of a
// resolution. Resolutions begun from it inherit those frames.
type lineage []*frame

// fork snapshots the frames of r that are in progress.
func (r *resolution) fork() lineage {
	frames := make(lineage, 0, len(r.origin)+len(r.stack))
	for _, f := range r.origin {
		if !f.done.Load() {
			frames = append(frames, f)
		}
	}
	return append(frames, r.stack...)
}

// nested reports whether r was started while another resolution was
// still in progress.
func (r *resolution) nested() bool {
	if len(r.stack) > 0 {
		return true
	}
	for _, f := range r.origin {
		if !f.done.Load() {
			return true
		}
	}
	return false
}

// begin starts a resolution inheriting l.
func (l lineage) begin() *resolution {
	return &resolution{origin: l}
}

func (r *resolution) enter(resolver *Resolver) error {
	for _, f := range r.origin {
		if f.resolver == resolver && !f.done.Load() {
			return r.cycle(resolver)
		}
	}
	for _, f := range r.stack {
		if f.resolver == resolver {
			return r.cycle(resolver)
		}
	}
	r.stack = append(r.stack, &frame{resolver: resolver})
	return nil
}

func (r *resolution) cycle(resolver *Resolver) error {
	active := r.fork()
	start := 0
	for i, f := range active {
		if f.resolver == resolver {
			start = i
			break
		}
	}
	path := make([]graph.NodeKey, 0, len(active)-start)
	for _, f := range active[start:] {
		path = append(path, graph.NodeKey{Key: f.resolver.key})
	}
	return CircularDependencyError{Node: graph.NodeKey{Key: resolver.key}, Path: path}
}

func (r *resolution) leave() {
	top := r.stack[len(r.stack)-1]
	top.done.Store(true)
	r.stack = r.stack[:len(r.stack)-1]
}
