package di

import (
	"fmt"

	"go.uber.org/zap"
)

// Module groups registrations under a name. Registering a module
// registers its items in order, as Container.Register does.
//
// Example:
//
//	var DatabaseModule = di.NewModule("database",
//	    registration.Singleton(IDatabase, DatabaseClass),
//	    UserRepositoryClass,
//	)
//
//	var AppModule = di.NewModule("app",
//	    DatabaseModule,
//	    registration.Instance("config", cfg),
//	    di.Transform(UserRepositoryClass, withTracing),
//	)
type Module struct {
	name  string
	items []any
}

// NewModule creates a new module with the given name and items.
func NewModule(name string, items ...any) *Module {
	return &Module{name: name, items: items}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Register registers every item of the module on c.
func (m *Module) Register(c *Container) error {
	if err := c.Register(m.items...); err != nil {
		return ModuleError{Module: m.name, Cause: err}
	}

	c.config.logger.Debug("registered module",
		zap.String("module", m.name),
		zap.Int("items", len(m.items)),
		zap.String("container", c.id),
	)
	return nil
}

// Transform returns a Registry that adds transformer to the factory behind key.
func Transform(key Key, transformer Transformer) Registry {
	return RegistryFunc(func(c *Container) error {
		ok, err := c.RegisterTransformer(key, transformer)
		if err != nil {
			return err
		}
		if !ok {
			return RegistrationError{
				Value:     key,
				Operation: "register-transformer",
				Cause:     fmt.Errorf("%w: %s has no factory", ErrNotConstructable, formatKey(key)),
			}
		}
		return nil
	})
}
