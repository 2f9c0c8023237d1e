package di

import "sync"

// Interface is an opaque key standing for an abstraction. It resolves to
// whatever is registered under it, or to its default registration on a
// miss when WithDefault was called.
type Interface struct {
	name string

	mu        sync.Mutex
	configure func(ResolverBuilder) (*Resolver, error)
}

// CreateInterface returns a new Interface key. The name is used only in
// messages; two interfaces with the same name are distinct keys.
func CreateInterface(name string) *Interface {
	if name == "" {
		name = "Interface"
	}
	return &Interface{name: name}
}

func (i *Interface) String() string {
	if i == nil {
		return "<nil interface>"
	}
	return "InterfaceSymbol<" + i.name + ">"
}

// Name returns the friendly name given to CreateInterface.
func (i *Interface) Name() string {
	return i.name
}

// NoDefault returns the interface unchanged. Resolving it without a
// registration fails with ErrNoDefault.
func (i *Interface) NoDefault() *Interface {
	return i
}

// WithDefault installs the registration made on the first container that
// misses the interface. It may be called once.
//
//	var ILogger = di.CreateInterface("ILogger")
//	_, _ = ILogger.WithDefault(func(b di.ResolverBuilder) (*di.Resolver, error) {
//		return b.Singleton(ConsoleLoggerClass)
//	})
func (i *Interface) WithDefault(configure func(ResolverBuilder) (*Resolver, error)) (*Interface, error) {
	if configure == nil {
		return i, RegistrationError{Value: i, Operation: "set-default", Cause: ErrResolverNil}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.configure != nil {
		return i, InterfaceDefaultAlreadySetError{Interface: i.String()}
	}
	i.configure = configure
	return i, nil
}

// HasDefault reports whether a default registration was installed.
func (i *Interface) HasDefault() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.configure != nil
}

// RegisterKey registers the default on c under key.
func (i *Interface) RegisterKey(c *Container, key Key) (*Resolver, error) {
	i.mu.Lock()
	configure := i.configure
	i.mu.Unlock()

	if configure == nil {
		return nil, ErrNoDefault
	}
	if key == nil {
		key = i
	}
	return configure(ResolverBuilder{container: c, key: key})
}

// Param declares the interface as the dependency at index.
func (i *Interface) Param(index int) ClassOption {
	return InjectParam(index, i)
}

// Field declares the interface as the key injected into field name.
func (i *Interface) Field(name string) ClassOption {
	return InjectField(name, i)
}

// ResolverBuilder registers a resolver for a fixed key on a fixed container.
type ResolverBuilder struct {
	container *Container
	key       Key
}

// NewResolverBuilder returns a builder registering key on c.
func NewResolverBuilder(c *Container, key Key) ResolverBuilder {
	return ResolverBuilder{container: c, key: key}
}

// Instance registers value.
func (b ResolverBuilder) Instance(value any) (*Resolver, error) {
	return b.register(Instance, value)
}

// Singleton registers class to be constructed once.
func (b ResolverBuilder) Singleton(class *Class) (*Resolver, error) {
	return b.register(Singleton, class)
}

// Transient registers class to be constructed on every request.
func (b ResolverBuilder) Transient(class *Class) (*Resolver, error) {
	return b.register(Transient, class)
}

// Callback registers fn to be invoked on every request.
func (b ResolverBuilder) Callback(fn CallbackFunc) (*Resolver, error) {
	return b.register(Callback, fn)
}

// AliasTo registers the key as an alias of destination.
func (b ResolverBuilder) AliasTo(destination Key) (*Resolver, error) {
	return b.register(Alias, destination)
}

func (b ResolverBuilder) register(strategy Strategy, state any) (*Resolver, error) {
	if b.container == nil {
		return nil, ErrContainerNil
	}
	return b.container.RegisterResolver(b.key, NewResolver(b.key, strategy, state))
}
