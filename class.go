package di

import (
	"fmt"
	"reflect"

	"github.com/junioryono/di/internal/reflection"
)

// Class is a constructible key: a constructor function together with the
// keys of its dependencies.
//
// A constructor has the form func(deps...) T or func(deps...) (T, error).
// Without declared dependencies, the constructor parameter types are used
// as reflect.Type keys. A Class used as a key constructs itself on a miss
// (see KeyRegisterer), as a Singleton unless AsTransient was given.
type Class struct {
	name     string
	info     *reflection.FuncInfo
	base     *Class
	lifetime Strategy

	// own holds the keys declared on this class; ownDeclared separates an
	// empty declaration from no declaration at all.
	own         []Key
	ownDeclared bool
	ownFields   []fieldInjection

	dependencies []Key
	fields       []fieldInjection
}

type fieldInjection struct {
	name string
	key  Key
}

// ClassOption configures a Class.
type ClassOption interface {
	applyClass(*Class) error
}

type classOptionFunc func(*Class) error

func (f classOptionFunc) applyClass(c *Class) error {
	return f(c)
}

// Inject declares the dependency keys of a class, in parameter order.
// It replaces any keys declared before it.
func Inject(keys ...Key) ClassOption {
	return classOptionFunc(func(c *Class) error {
		c.own = append(make([]Key, 0, len(keys)), keys...)
		c.ownDeclared = true
		return nil
	})
}

// InjectParam declares the dependency key of the parameter at index.
// Positions left undeclared hold a nil key.
func InjectParam(index int, key Key) ClassOption {
	return classOptionFunc(func(c *Class) error {
		if index < 0 {
			return fmt.Errorf("parameter index %d is negative", index)
		}
		for len(c.own) <= index {
			c.own = append(c.own, nil)
		}
		c.own[index] = key
		c.ownDeclared = true
		return nil
	})
}

// InjectField declares a field of the constructed struct to be set from
// key after construction.
func InjectField(name string, key Key) ClassOption {
	return classOptionFunc(func(c *Class) error {
		if name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		c.ownFields = append(c.ownFields, fieldInjection{name: name, key: key})
		return nil
	})
}

// Extends makes base the parent class. Declared dependencies and field
// injections of base and its ancestors are appended after the class's own.
func Extends(base *Class) ClassOption {
	return classOptionFunc(func(c *Class) error {
		if base == nil {
			return fmt.Errorf("base class cannot be nil")
		}
		c.base = base
		return nil
	})
}

// Named sets the name used for the class in messages and graphs.
func Named(name string) ClassOption {
	return classOptionFunc(func(c *Class) error {
		c.name = name
		return nil
	})
}

// AsSingleton makes the class register itself as a Singleton on a miss.
func AsSingleton() ClassOption {
	return classOptionFunc(func(c *Class) error {
		c.lifetime = Singleton
		return nil
	})
}

// AsTransient makes the class register itself as a Transient on a miss.
func AsTransient() ClassOption {
	return classOptionFunc(func(c *Class) error {
		c.lifetime = Transient
		return nil
	})
}

// NewClass creates a Class from a constructor.
func NewClass(constructor any, opts ...ClassOption) (*Class, error) {
	if constructor == nil {
		return nil, RegistrationError{Value: constructor, Operation: "create-class", Cause: ErrConstructorNil}
	}

	info, err := reflection.AnalyzeConstructor(constructor)
	if err != nil {
		return nil, RegistrationError{Value: constructor, Operation: "create-class", Cause: err}
	}

	c := &Class{
		name:     formatType(info.Out()),
		info:     info,
		lifetime: Singleton,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyClass(c); err != nil {
			return nil, RegistrationError{Value: constructor, Operation: "create-class", Cause: err}
		}
	}

	c.flatten()
	return c, nil
}

// MustClass is like NewClass but panics on error.
// It simplifies declaring classes as package-level variables.
func MustClass(constructor any, opts ...ClassOption) *Class {
	c, err := NewClass(constructor, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// flatten computes the dependency list once. Own declarations come first,
// followed by each ancestor's, nearest first. Duplicates are kept.
func (c *Class) flatten() {
	declared := false
	for current := c; current != nil; current = current.base {
		if current.ownDeclared {
			declared = true
			c.dependencies = append(c.dependencies, current.own...)
		}
		c.fields = append(c.fields, current.ownFields...)
	}

	if !declared {
		c.dependencies = make([]Key, len(c.info.Params))
		for i, p := range c.info.Params {
			c.dependencies[i] = p
		}
	}
}

// GetDependencies returns the dependency keys used to construct class.
func GetDependencies(class *Class) []Key {
	if class == nil {
		return nil
	}
	return append([]Key(nil), class.dependencies...)
}

// Type returns the type of the values the class constructs.
func (c *Class) Type() reflect.Type {
	return c.info.Out()
}

// Base returns the parent class, or nil.
func (c *Class) Base() *Class {
	return c.base
}

// Lifetime returns the strategy used when the class registers itself.
func (c *Class) Lifetime() Strategy {
	return c.lifetime
}

func (c *Class) String() string {
	if c == nil {
		return "<nil class>"
	}
	return c.name
}

// Register registers the class under itself, with its lifetime.
func (c *Class) Register(container *Container) error {
	_, err := c.RegisterKey(container, c)
	return err
}

// RegisterKey registers the class under key, with its lifetime.
func (c *Class) RegisterKey(container *Container, key Key) (*Resolver, error) {
	return container.RegisterResolver(key, NewResolver(key, c.lifetime, c))
}

// call invokes the constructor with fully prepared arguments.
func (c *Class) call(args []reflect.Value) (any, error) {
	out, err := reflection.Call(c.info, args)
	if err != nil {
		if p, ok := err.(*reflection.PanicError); ok {
			return nil, ConstructorPanicError{Constructor: c.info.Type, Panic: p.Value, Stack: p.Stack}
		}
		return nil, ConstructorInvocationError{Constructor: c.info.Type, Parameters: c.info.ParamTypes(), Cause: err}
	}
	return out[0].Interface(), nil
}

// coerce converts a resolved value into the argument at index.
func (c *Class) coerce(index int, value any) (reflect.Value, error) {
	target := c.info.ParamType(index)
	if target == nil {
		return reflect.Value{}, ConstructorInvocationError{
			Constructor: c.info.Type,
			Parameters:  c.info.ParamTypes(),
			Cause:       fmt.Errorf("no parameter at index %d", index),
		}
	}

	v, ok := reflection.Coerce(value, target)
	if !ok {
		return reflect.Value{}, TypeMismatchError{
			Expected: target,
			Actual:   reflect.TypeOf(value),
			Context:  fmt.Sprintf("argument %d of %s", index, c.name),
		}
	}
	return v, nil
}
