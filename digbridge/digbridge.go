// Package digbridge connects a di container to a go.uber.org/dig container.
//
// Values constructed by dig can be registered as di resolvers, and di
// registrations can be provided to dig constructors:
//
//	dc := dig.New()
//	_ = dc.Provide(NewDatabase)
//
//	c := di.NewContainer()
//	_ = c.Register(digbridge.Resolver[*Database](dc, IDatabase))
//	_ = digbridge.Provide[Logger](dc, c, ILogger)
package digbridge

import (
	"fmt"

	"github.com/junioryono/di"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Resolver returns a Callback resolver for key that extracts T from dc on
// every request. dig constructs each type at most once, so every request
// observes the same value.
func Resolver[T any](dc *dig.Container, key di.Key, opts ...dig.InvokeOption) *di.Resolver {
	return di.NewResolver(key, di.Callback, di.CallbackFunc(func(_, requestor *di.Container, _ *di.Resolver) (any, error) {
		var value T
		if err := dc.Invoke(func(v T) { value = v }, opts...); err != nil {
			requestor.Logger().Debug("dig invoke failed",
				zap.String("key", fmt.Sprint(key)),
				zap.Error(dig.RootCause(err)),
			)
			return nil, err
		}
		return value, nil
	}))
}

// Provide makes T available to dig constructors by resolving key from c
// each time dig builds a dependent.
func Provide[T any](dc *dig.Container, c *di.Container, key di.Key, opts ...dig.ProvideOption) error {
	return dc.Provide(func() (T, error) {
		return di.Resolve[T](c, key)
	}, opts...)
}
