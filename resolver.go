package di

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// CallbackFunc produces a value for a Callback resolver. handler is the
// container where the resolver was found, requestor the container the
// request was made on. Both are views that remember the resolution in
// progress; resolve through them so that cycles are reported.
type CallbackFunc func(handler, requestor *Container, resolver *Resolver) (any, error)

// Resolver produces values for one key according to its Strategy.
//
// The state depends on the strategy:
//
//	Instance   any          the value itself
//	Singleton  *Class       constructed once
//	Transient  *Class       constructed on every resolution
//	Callback   CallbackFunc invoked on every resolution
//	Array      []*Resolver  the registrations sharing the key
//	Alias      Key          the key to forward to
type Resolver struct {
	key      Key
	strategy Strategy

	mu    sync.RWMutex // guards state for Array
	state any

	cell *singletonCell
}

// singletonCell holds the value of a Singleton resolver. It moves from
// unresolved to resolved exactly once; a failed construction leaves it
// unresolved so that a later request retries.
type singletonCell struct {
	mu       sync.Mutex
	resolved atomic.Bool
	value    any
}

// NewResolver creates a resolver for key.
func NewResolver(key Key, strategy Strategy, state any) *Resolver {
	r := &Resolver{
		key:      key,
		strategy: strategy,
		state:    state,
	}

	switch strategy {
	case Singleton:
		r.cell = &singletonCell{}
	case Array:
		if resolvers, ok := state.([]*Resolver); ok {
			r.state = append([]*Resolver(nil), resolvers...)
		}
	case Callback:
		if fn, ok := state.(func(handler, requestor *Container, resolver *Resolver) (any, error)); ok {
			r.state = CallbackFunc(fn)
		}
	}

	return r
}

// Key returns the key the resolver was created for.
func (r *Resolver) Key() Key {
	return r.key
}

// Strategy returns the current strategy. A Singleton resolver that has
// produced its value reports Instance.
func (r *Resolver) Strategy() Strategy {
	if r.strategy == Singleton && r.cell.resolved.Load() {
		return Instance
	}
	return r.strategy
}

// Resolvers returns the registrations held by an Array resolver, or nil.
func (r *Resolver) Resolvers() []*Resolver {
	if r.strategy != Array {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolvers, _ := r.state.([]*Resolver)
	return append([]*Resolver(nil), resolvers...)
}

func (r *Resolver) appendResolver(next *Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resolvers, _ := r.state.([]*Resolver)
	r.state = append(resolvers, next)
}

// Register registers the resolver on c under its key.
func (r *Resolver) Register(c *Container) error {
	_, err := c.RegisterResolver(r.key, r)
	return err
}

// Resolve produces a value for the resolver.
func (r *Resolver) Resolve(handler, requestor *Container) (any, error) {
	if handler == nil || requestor == nil {
		return nil, ErrContainerNil
	}
	return r.resolve(handler, requestor, requestor.newResolution())
}

func (r *Resolver) resolve(handler, requestor *Container, res *resolution) (any, error) {
	switch r.strategy {
	case Instance:
		return r.state, nil

	case Singleton:
		return r.resolveSingleton(handler, res)

	case Transient:
		class, err := r.class()
		if err != nil {
			return nil, err
		}
		if err := res.enter(r); err != nil {
			return nil, err
		}
		defer res.leave()
		return requestor.GetFactory(class).construct(requestor, nil, res)

	case Callback:
		fn, ok := r.state.(CallbackFunc)
		if !ok || fn == nil {
			return nil, r.stateError()
		}
		if err := res.enter(r); err != nil {
			return nil, err
		}
		defer res.leave()
		if handler.self() == requestor.self() {
			view := requestor.within(res)
			return fn(view, view, r)
		}
		return fn(handler.within(res), requestor.within(res), r)

	case Array:
		resolvers := r.Resolvers()
		if len(resolvers) == 0 {
			return nil, r.stateError()
		}
		return resolvers[0].resolve(handler, requestor, res)

	case Alias:
		if err := validateKey(r.state); err != nil {
			return nil, ResolutionError{Key: r.key, Cause: err}
		}
		if err := res.enter(r); err != nil {
			return nil, err
		}
		defer res.leave()
		return handler.get(r.state, res)

	default:
		return nil, UnknownResolverStrategyError{Strategy: r.strategy}
	}
}

func (r *Resolver) resolveSingleton(handler *Container, res *resolution) (any, error) {
	cell := r.cell
	if cell.resolved.Load() {
		return cell.value, nil
	}

	class, err := r.class()
	if err != nil {
		return nil, err
	}

	if err := res.enter(r); err != nil {
		return nil, err
	}
	defer res.leave()

	cell.mu.Lock()
	defer cell.mu.Unlock()

	if cell.resolved.Load() {
		return cell.value, nil
	}

	value, err := handler.GetFactory(class).construct(handler, nil, res)
	if err != nil {
		return nil, err
	}

	cell.value = value
	cell.resolved.Store(true)
	return value, nil
}

// resolveAll resolves every registration held by the resolver.
func (r *Resolver) resolveAll(handler, requestor *Container, res *resolution) ([]any, error) {
	if r.strategy != Array {
		value, err := r.resolve(handler, requestor, res)
		if err != nil {
			return nil, err
		}
		return []any{value}, nil
	}

	resolvers := r.Resolvers()
	values := make([]any, 0, len(resolvers))
	for _, resolver := range resolvers {
		value, err := resolver.resolve(handler, requestor, res)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// GetFactory returns the factory of a constructing resolver, or nil for
// strategies that do not construct. A resolved Singleton returns nil.
func (r *Resolver) GetFactory(c *Container) *Factory {
	switch r.Strategy() {
	case Singleton, Transient:
		class, err := r.class()
		if err != nil {
			return nil
		}
		return c.GetFactory(class)
	default:
		return nil
	}
}

func (r *Resolver) class() (*Class, error) {
	class, ok := r.state.(*Class)
	if !ok || class == nil {
		return nil, r.stateError()
	}
	return class, nil
}

func (r *Resolver) stateError() error {
	return ResolutionError{
		Key:   r.key,
		Cause: fmt.Errorf("%w: %s resolver holds %T", ErrInvalidResolverState, r.strategy, r.state),
	}
}
