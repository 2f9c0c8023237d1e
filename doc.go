// Package di provides a hierarchical dependency injection container with
// pluggable resolution strategies.
//
// # Overview
//
// A Container maps keys to resolvers. Keys are arbitrary comparable
// values: a *Class, an *Interface, a reflect.Type, a string. The library
// provides:
//   - Six resolver strategies: Instance, Singleton, Transient, Callback, Array and Alias
//   - Child containers that fall back to their parent on a miss
//   - Just-in-time registration of classes and interface defaults
//   - all, lazy and optional dependency combinators
//   - Post-construction transformers and field injection
//   - Cycle detection at resolution time and ahead of time with Validate
//   - Thread-safe operations
//
// # Basic Usage
//
// Declare classes, register them, then resolve:
//
//	var LoggerClass = di.MustClass(NewLogger)
//	var ServiceClass = di.MustClass(NewService, di.Inject(LoggerClass))
//
//	c := di.NewContainer()
//	svc, err := di.Resolve[*Service](c, ServiceClass)
//
// Classes register themselves on first request, as singletons unless
// declared with di.AsTransient().
//
// # Dependencies
//
// Dependencies are declared as keys, in parameter order:
//
//	di.MustClass(NewService, di.Inject(LoggerClass, "config"))
//	di.MustClass(NewService, ILogger.Param(0), di.InjectParam(1, "config"))
//
// Without declarations the parameter types are used as reflect.Type keys:
//
//	c.Register(registration.Instance(reflect.TypeFor[*Config](), cfg))
//	di.MustClass(func(cfg *Config) *Service { ... })
//
// A class created with di.Extends(base) appends the declarations of base
// and its ancestors after its own.
//
// # Resolver Strategies
//
// Resolvers are usually built with package registration:
//
//   - Instance: returns a stored value
//   - Singleton: constructs once on the container where it was found
//   - Transient: constructs on every request using the requesting container
//   - Callback: calls a function on every request
//   - Alias: forwards to another key
//
// Registering twice under one key creates an Array resolver: Get returns
// the first registration and GetAll returns all of them.
//
// # Interfaces
//
// An Interface is an opaque key for an abstraction. It may carry a
// default used by the first container that misses it:
//
//	var ILogger = di.CreateInterface("ILogger")
//
//	func init() {
//	    _, _ = ILogger.WithDefault(func(b di.ResolverBuilder) (*di.Resolver, error) {
//	        return b.Singleton(ConsoleLoggerClass)
//	    })
//	}
//
// # Combinators
//
// All, Lazy and Optional wrap a key to change how it is resolved:
//
//	di.MustClass(NewRouter, di.Inject(di.All(IHandler), di.Lazy(IMailer), di.Optional(ICache)))
//
// All yields every registration, Lazy yields a LazyFunc resolving on first
// call, and Optional yields nil when nothing is registered.
//
// # Child Containers
//
// CreateChild returns a container that consults its parent on a miss.
// Singletons found on an ancestor are shared; transients are constructed
// with the child, so their dependencies see the child's registrations.
//
// # Errors
//
// Failures are reported as typed errors wrapping sentinel values:
//
//	_, err := c.Get(nil)
//	errors.Is(err, di.ErrInvalidKey) // true
//
//	var cycle di.CircularDependencyError
//	errors.As(err, &cycle)
//
// # Observability
//
// WithLogger sets a zap logger receiving debug events and WithObserver
// receives registration, construction and failure events. Package diprom
// exports these as Prometheus metrics.
//
// # Integrations
//
// Packages chi and gin create a child container per HTTP request and
// resolve controllers from it. Package digbridge moves values between a
// Container and a go.uber.org/dig container.
package di
