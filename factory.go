package di

import (
	"fmt"
	"sync"
	"time"

	"github.com/junioryono/di/internal/reflection"
	"go.uber.org/zap"
)

// Transformer post-processes a freshly constructed value. The returned
// value replaces the constructed one.
type Transformer func(instance any) any

// Factory builds instances of one Class. Factories are cached per class
// on a Configuration and shared by every container using it.
type Factory struct {
	class        *Class
	invoker      invoker
	dependencies []Key

	mu           sync.RWMutex
	transformers []Transformer
}

func newFactory(class *Class) *Factory {
	dependencies := GetDependencies(class)

	var inv invoker = fallbackInvoker{}
	if len(dependencies) < len(classInvokers) {
		inv = classInvokers[len(dependencies)]
	}

	return &Factory{
		class:        class,
		invoker:      inv,
		dependencies: dependencies,
	}
}

// Class returns the class the factory builds.
func (f *Factory) Class() *Class {
	return f.class
}

// Dependencies returns the static dependency keys of the class.
func (f *Factory) Dependencies() []Key {
	return append([]Key(nil), f.dependencies...)
}

// Construct builds a new instance, resolving dependencies from c. When
// dynamic values are given they are passed after the resolved ones.
func (f *Factory) Construct(c *Container, dynamic ...any) (any, error) {
	if c == nil {
		return nil, ErrContainerNil
	}
	return f.construct(c, dynamic, c.newResolution())
}

func (f *Factory) construct(c *Container, dynamic []any, res *resolution) (any, error) {
	if c == nil {
		return nil, ErrContainerNil
	}

	info := f.class.info
	if n := len(f.dependencies) + len(dynamic); !info.Accepts(n) {
		return nil, ConstructorInvocationError{
			Constructor: info.Type,
			Parameters:  info.ParamTypes(),
			Cause:       fmt.Errorf("%s takes %d arguments, %d dependencies declared", f.class, len(info.Params), n),
		}
	}

	start := time.Now()

	var (
		instance any
		err      error
	)
	if dynamic == nil {
		instance, err = f.invoker.invoke(c, f.class, f.dependencies, res)
	} else {
		instance, err = f.invoker.invokeWithDynamicDependencies(c, f.class, f.dependencies, dynamic, res)
	}
	if err != nil {
		return nil, err
	}

	if err := f.injectFields(c, instance, res); err != nil {
		return nil, err
	}

	f.mu.RLock()
	transformers := f.transformers
	f.mu.RUnlock()

	for _, transform := range transformers {
		instance = transform(instance)
	}

	elapsed := time.Since(start)
	c.config.logger.Debug("constructed instance",
		zap.Stringer("class", f.class),
		zap.String("container", c.id),
		zap.Duration("duration", elapsed),
	)
	c.config.observer.Constructed(f.class, elapsed)

	return instance, nil
}

func (f *Factory) injectFields(c *Container, instance any, res *resolution) error {
	for _, field := range f.class.fields {
		value, err := c.get(field.key, res)
		if err != nil {
			return FieldInjectionError{Class: f.class.String(), Field: field.name, Cause: err}
		}
		if err := reflection.SetField(instance, field.name, value); err != nil {
			return FieldInjectionError{Class: f.class.String(), Field: field.name, Cause: err}
		}
	}
	return nil
}

// RegisterTransformer appends a transformer. Transformers run in
// registration order on every instance constructed afterwards.
func (f *Factory) RegisterTransformer(transformer Transformer) bool {
	if transformer == nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Copy on write so constructions in flight keep their snapshot.
	next := make([]Transformer, len(f.transformers), len(f.transformers)+1)
	copy(next, f.transformers)
	f.transformers = append(next, transformer)
	return true
}
