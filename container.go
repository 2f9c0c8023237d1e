package di

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// IContainer is the key under which every container registers itself.
// Resolving it, or the *Container type, returns the requesting container.
var IContainer = CreateInterface("IContainer")

var containerType = reflect.TypeFor[*Container]()

// Container holds registrations and resolves keys, consulting its parent
// chain when a key is not registered locally.
//
// Container is safe for concurrent use.
type Container struct {
	id     string
	parent *Container
	config *Configuration

	mu        *sync.RWMutex
	resolvers map[Key]*Resolver

	// origin and lineage are set on the views handed to callbacks. A view
	// shares origin's registrations, and the resolutions it starts inherit
	// lineage so that re-entering a resolver in progress fails as a cycle.
	origin  *Container
	lineage lineage

	jit *xsync.MapOf[Key, *sync.Mutex]
}

// NewContainer creates a root container.
func NewContainer(opts ...Option) *Container {
	return newContainer(nil, newConfiguration(opts...))
}

func newContainer(parent *Container, config *Configuration) *Container {
	c := &Container{
		id:        uuid.NewString(),
		parent:    parent,
		config:    config,
		mu:        &sync.RWMutex{},
		resolvers: make(map[Key]*Resolver),
		jit:       xsync.NewMapOf[Key, *sync.Mutex](),
	}

	c.resolvers[IContainer] = containerResolver(IContainer)
	c.resolvers[containerType] = containerResolver(containerType)

	fields := []zap.Field{zap.String("container", c.id)}
	if parent != nil {
		fields = append(fields, zap.String("parent", parent.id))
	}
	config.logger.Debug("created container", fields...)

	return c
}

func containerResolver(key Key) *Resolver {
	return NewResolver(key, Callback, CallbackFunc(func(_, requestor *Container, _ *Resolver) (any, error) {
		return requestor.self(), nil
	}))
}

// self returns the container a view was made from, or c itself.
func (c *Container) self() *Container {
	if c.origin != nil {
		return c.origin
	}
	return c
}

// within returns a view of c whose resolutions inherit the frames of res
// that are in progress.
func (c *Container) within(res *resolution) *Container {
	origin := c.self()
	return &Container{
		id:        origin.id,
		parent:    origin.parent,
		config:    origin.config,
		mu:        origin.mu,
		resolvers: origin.resolvers,
		origin:    origin,
		lineage:   res.fork(),
		jit:       origin.jit,
	}
}

func (c *Container) newResolution() *resolution {
	if c.lineage != nil {
		return c.lineage.begin()
	}
	return newResolution()
}

// ID returns the unique identifier of the container.
func (c *Container) ID() string {
	return c.id
}

// Parent returns the parent container, or nil for a root.
func (c *Container) Parent() *Container {
	return c.parent
}

// Configuration returns the configuration the container uses.
func (c *Container) Configuration() *Configuration {
	return c.config
}

// Logger returns the configured logger.
func (c *Container) Logger() *zap.Logger {
	return c.config.logger
}

// CreateChild creates a container whose lookups fall back to c. Without
// options the child shares c's configuration, and with it the factory
// cache; with options it gets a derived configuration.
func (c *Container) CreateChild(opts ...Option) *Container {
	config := c.config
	if len(opts) > 0 {
		config = c.config.derive(opts)
	}
	return newContainer(c.self(), config)
}

// Register registers each item. A Registry registers itself; a map,
// slice, array or struct has each of its values registered in turn.
// Map values are visited in key order.
func (c *Container) Register(items ...any) error {
	for _, item := range items {
		if err := c.register(item, make(map[uintptr]bool), false); err != nil {
			return err
		}
	}
	return nil
}

// register registers item. Plain values found inside a map, struct or
// slice are skipped; passed directly they are an error.
func (c *Container) register(item any, seen map[uintptr]bool, nested bool) error {
	if item == nil {
		return nil
	}

	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}

	if registry, ok := item.(Registry); ok {
		return registry.Register(c)
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.Elem().Kind() != reflect.Struct {
			break
		}
		if seen[v.Pointer()] {
			return nil
		}
		seen[v.Pointer()] = true
		return c.registerValues(v.Elem(), seen)

	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, key := range keys {
			if err := c.register(v.MapIndex(key).Interface(), seen, true); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice, reflect.Array, reflect.Struct:
		return c.registerValues(v, seen)
	}

	if nested {
		return nil
	}
	return RegistrationError{Value: item, Operation: "register", Cause: ErrInvalidRegistration}
}

func (c *Container) registerValues(v reflect.Value, seen map[uintptr]bool) error {
	if v.Kind() == reflect.Struct {
		for i := range v.NumField() {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := c.register(v.Field(i).Interface(), seen, true); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range v.Len() {
		if err := c.register(v.Index(i).Interface(), seen, true); err != nil {
			return err
		}
	}
	return nil
}

// RegisterResolver registers resolver under key and returns it. A second
// registration under the same key turns the entry into an Array resolver
// holding both; later ones are appended to it.
func (c *Container) RegisterResolver(key Key, resolver *Resolver) (*Resolver, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, RegistrationError{Value: key, Operation: "register-resolver", Cause: ErrResolverNil}
	}

	c.mu.Lock()
	existing, ok := c.resolvers[key]
	switch {
	case !ok:
		c.resolvers[key] = resolver
	case existing.strategy == Array:
		existing.appendResolver(resolver)
	default:
		c.resolvers[key] = NewResolver(key, Array, []*Resolver{existing, resolver})
	}
	c.mu.Unlock()

	c.config.logger.Debug("registered resolver",
		zap.String("key", formatKey(key)),
		zap.Stringer("strategy", resolver.Strategy()),
		zap.String("container", c.id),
		zap.Bool("multiple", ok),
	)
	c.config.observer.Registered(key, resolver.Strategy())

	return resolver, nil
}

// RegisterTransformer adds transformer to the factory behind key. It
// returns false when key has no constructing resolver, including when key
// cannot register itself on a miss.
func (c *Container) RegisterTransformer(key Key, transformer Transformer) (bool, error) {
	resolver, err := c.GetResolver(key, true)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return false, err
		}
		return false, nil
	}
	if resolver == nil {
		return false, nil
	}

	factory := resolver.GetFactory(c)
	if factory == nil {
		return false, nil
	}

	if !factory.RegisterTransformer(transformer) {
		return false, nil
	}
	c.config.logger.Debug("registered transformer",
		zap.String("key", formatKey(key)),
		zap.Stringer("class", factory.Class()),
	)
	return true, nil
}

// GetResolver finds the resolver for key on c or its ancestors. On a miss
// it registers key on c when autoRegister is set, and returns nil
// otherwise. A self-resolving key is wrapped in a Callback resolver.
func (c *Container) GetResolver(key Key, autoRegister bool) (*Resolver, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	if self, ok := key.(selfResolvingKey); ok {
		return NewResolver(key, Callback, CallbackFunc(func(handler, requestor *Container, _ *Resolver) (any, error) {
			return self.resolveSelf(handler, requestor, requestor.newResolution())
		})), nil
	}

	if resolver, _ := c.find(key); resolver != nil {
		return resolver, nil
	}

	if !autoRegister {
		return nil, nil
	}
	return c.jitRegister(key)
}

// Has reports whether key is registered on c or, with searchAncestors,
// on any ancestor. Invalid keys are never registered.
func (c *Container) Has(key Key, searchAncestors bool) bool {
	if validateKey(key) != nil {
		return false
	}
	if !searchAncestors {
		return c.lookup(key) != nil
	}
	resolver, _ := c.find(key)
	return resolver != nil
}

// Get resolves key. A miss on the whole chain registers key on c when it
// can register itself, and fails with ErrNotConstructable otherwise.
func (c *Container) Get(key Key) (any, error) {
	return c.get(key, c.newResolution())
}

func (c *Container) get(key Key, res *resolution) (any, error) {
	if err := validateKey(key); err != nil {
		return nil, c.failed(key, err, res)
	}

	value, err := c.resolveKey(key, res)
	if err != nil {
		var resErr ResolutionError
		if !errors.As(err, &resErr) || resErr.Key != key {
			err = ResolutionError{Key: key, Cause: err}
		}
		return nil, c.failed(key, err, res)
	}
	return value, nil
}

// failed reports err for requests made from outside any resolution, so
// that a failing dependency is observed once rather than at every level.
func (c *Container) failed(key Key, err error, res *resolution) error {
	if !res.nested() {
		c.config.logger.Debug("resolution failed",
			zap.String("key", formatKey(key)),
			zap.String("container", c.id),
			zap.Error(err),
		)
		c.config.observer.ResolveFailed(key, err)
	}
	return err
}

func (c *Container) resolveKey(key Key, res *resolution) (any, error) {
	if self, ok := key.(selfResolvingKey); ok {
		return self.resolveSelf(c, c, res)
	}

	if resolver, handler := c.find(key); resolver != nil {
		return resolver.resolve(handler, c, res)
	}

	resolver, err := c.jitRegister(key)
	if err != nil {
		return nil, err
	}
	return resolver.resolve(c, c, res)
}

// GetAll resolves every registration of key on the nearest container that
// has one. It returns an empty slice when no container does and never
// registers anything.
func (c *Container) GetAll(key Key) ([]any, error) {
	return c.getAll(key, c.newResolution())
}

func (c *Container) getAll(key Key, res *resolution) ([]any, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resolver, handler := c.find(key)
	if resolver == nil {
		return []any{}, nil
	}

	values, err := resolver.resolveAll(handler, c, res)
	if err != nil {
		return nil, ResolutionError{Key: key, Cause: err}
	}
	return values, nil
}

// GetFactory returns the factory for class from the configuration's cache.
func (c *Container) GetFactory(class *Class) *Factory {
	if class == nil {
		return nil
	}
	return c.config.factory(class)
}

// lookup returns the resolver registered on c itself.
func (c *Container) lookup(key Key) *Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolvers[key]
}

// find walks from c to the root and returns the first resolver for key
// along with the container it was found on.
func (c *Container) find(key Key) (*Resolver, *Container) {
	for current := c; current != nil; current = current.parent {
		if resolver := current.lookup(key); resolver != nil {
			return resolver, current
		}
	}
	return nil, nil
}

// jitRegister registers key on c after a miss on the whole chain. Callers
// racing on the same key wait for the first registration and use it.
func (c *Container) jitRegister(key Key) (*Resolver, error) {
	registerer, ok := key.(KeyRegisterer)
	if !ok {
		return nil, ResolutionError{Key: key, Cause: ErrNotConstructable}
	}

	lock, _ := c.jit.LoadOrCompute(key, func() *sync.Mutex { return &sync.Mutex{} })
	lock.Lock()
	defer lock.Unlock()
	defer c.jit.Delete(key)

	if resolver := c.lookup(key); resolver != nil {
		return resolver, nil
	}

	resolver, err := registerer.RegisterKey(c, key)
	if err != nil {
		return nil, ResolutionError{Key: key, Cause: err}
	}
	if resolver == nil {
		// The key may have registered through Register rather than
		// returning its resolver.
		if resolver = c.lookup(key); resolver == nil {
			return nil, ResolutionError{Key: key, Cause: ErrNotConstructable}
		}
	}

	c.config.logger.Debug("registered key on demand",
		zap.String("key", formatKey(key)),
		zap.String("container", c.id),
	)
	c.config.observer.JITRegistered(key)

	return resolver, nil
}

// Keys returns the keys registered on c itself.
func (c *Container) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]Key, 0, len(c.resolvers))
	for key := range c.resolvers {
		keys = append(keys, key)
	}
	return keys
}
