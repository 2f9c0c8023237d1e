// Package registration builds resolvers for the common strategies.
//
// Each function returns a *di.Resolver, which is a di.Registry:
//
//	c.Register(
//	    registration.Instance("config", cfg),
//	    registration.Singleton(ILogger, LoggerClass),
//	    registration.Alias(ILogger, "logger"),
//	)
package registration

import "github.com/junioryono/di"

// Instance returns a resolver yielding value for key.
func Instance(key di.Key, value any) *di.Resolver {
	return di.NewResolver(key, di.Instance, value)
}

// Singleton returns a resolver constructing class once for key.
func Singleton(key di.Key, class *di.Class) *di.Resolver {
	return di.NewResolver(key, di.Singleton, class)
}

// Transient returns a resolver constructing class on every request for key.
func Transient(key di.Key, class *di.Class) *di.Resolver {
	return di.NewResolver(key, di.Transient, class)
}

// Callback returns a resolver invoking fn on every request for key.
func Callback(key di.Key, fn di.CallbackFunc) *di.Resolver {
	return di.NewResolver(key, di.Callback, fn)
}

// Alias returns a resolver making aliasKey resolve whatever originalKey does.
func Alias(originalKey, aliasKey di.Key) *di.Resolver {
	return di.NewResolver(aliasKey, di.Alias, originalKey)
}

// Interpret returns a registry that resolves interpreterKey and, when the
// result is itself a registry, registers it. A constructing resolver is
// built with rest as dynamic dependencies.
func Interpret(interpreterKey di.Key, rest ...any) di.Registry {
	return di.RegistryFunc(func(c *di.Container) error {
		resolver, err := c.GetResolver(interpreterKey, true)
		if err != nil {
			return err
		}
		if resolver == nil {
			return nil
		}

		var value any
		if factory := resolver.GetFactory(c); factory != nil {
			dynamic := rest
			if dynamic == nil {
				dynamic = []any{}
			}
			value, err = factory.Construct(c, dynamic...)
		} else {
			value, err = resolver.Resolve(c, c)
		}
		if err != nil {
			return err
		}

		if registry, ok := value.(di.Registry); ok {
			return registry.Register(c)
		}
		return nil
	})
}
