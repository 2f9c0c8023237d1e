package di

import "reflect"

// invoker calls a class constructor with its resolved dependencies.
type invoker interface {
	invoke(c *Container, class *Class, dependencies []Key, res *resolution) (any, error)
	invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error)
}

// classInvokers holds specialised invokers for zero to five dependencies,
// indexed by dependency count. Larger classes use fallbackInvoker.
var classInvokers = [...]invoker{
	invoker0{},
	invoker1{},
	invoker2{},
	invoker3{},
	invoker4{},
	invoker5{},
}

// arg resolves the dependency at index and converts it to the parameter type.
func arg(c *Container, class *Class, index int, key Key, res *resolution) (reflect.Value, error) {
	value, err := c.get(key, res)
	if err != nil {
		return reflect.Value{}, err
	}
	return class.coerce(index, value)
}

type invoker0 struct{}

func (invoker0) invoke(_ *Container, class *Class, _ []Key, _ *resolution) (any, error) {
	return class.call(nil)
}

func (invoker0) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

type invoker1 struct{}

func (invoker1) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	a0, err := arg(c, class, 0, deps[0], res)
	if err != nil {
		return nil, err
	}
	args := [1]reflect.Value{a0}
	return class.call(args[:])
}

func (invoker1) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

type invoker2 struct{}

func (invoker2) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	a0, err := arg(c, class, 0, deps[0], res)
	if err != nil {
		return nil, err
	}
	a1, err := arg(c, class, 1, deps[1], res)
	if err != nil {
		return nil, err
	}
	args := [2]reflect.Value{a0, a1}
	return class.call(args[:])
}

func (invoker2) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

type invoker3 struct{}

func (invoker3) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	a0, err := arg(c, class, 0, deps[0], res)
	if err != nil {
		return nil, err
	}
	a1, err := arg(c, class, 1, deps[1], res)
	if err != nil {
		return nil, err
	}
	a2, err := arg(c, class, 2, deps[2], res)
	if err != nil {
		return nil, err
	}
	args := [3]reflect.Value{a0, a1, a2}
	return class.call(args[:])
}

func (invoker3) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

type invoker4 struct{}

func (invoker4) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	a0, err := arg(c, class, 0, deps[0], res)
	if err != nil {
		return nil, err
	}
	a1, err := arg(c, class, 1, deps[1], res)
	if err != nil {
		return nil, err
	}
	a2, err := arg(c, class, 2, deps[2], res)
	if err != nil {
		return nil, err
	}
	a3, err := arg(c, class, 3, deps[3], res)
	if err != nil {
		return nil, err
	}
	args := [4]reflect.Value{a0, a1, a2, a3}
	return class.call(args[:])
}

func (invoker4) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

type invoker5 struct{}

func (invoker5) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	a0, err := arg(c, class, 0, deps[0], res)
	if err != nil {
		return nil, err
	}
	a1, err := arg(c, class, 1, deps[1], res)
	if err != nil {
		return nil, err
	}
	a2, err := arg(c, class, 2, deps[2], res)
	if err != nil {
		return nil, err
	}
	a3, err := arg(c, class, 3, deps[3], res)
	if err != nil {
		return nil, err
	}
	a4, err := arg(c, class, 4, deps[4], res)
	if err != nil {
		return nil, err
	}
	args := [5]reflect.Value{a0, a1, a2, a3, a4}
	return class.call(args[:])
}

func (invoker5) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

// fallbackInvoker handles classes with more than five dependencies.
type fallbackInvoker struct{}

func (fallbackInvoker) invoke(c *Container, class *Class, deps []Key, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, deps, nil, res)
}

func (fallbackInvoker) invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	return invokeWithDynamicDependencies(c, class, static, dynamic, res)
}

// invokeWithDynamicDependencies resolves every static key, then appends
// the dynamic values. A nil static key fails before anything is resolved.
func invokeWithDynamicDependencies(c *Container, class *Class, static []Key, dynamic []any, res *resolution) (any, error) {
	for i, key := range static {
		if key == nil {
			return nil, UnresolvableDependencyError{Class: class.String(), Index: i}
		}
	}

	args := make([]reflect.Value, 0, len(static)+len(dynamic))
	for i, key := range static {
		v, err := arg(c, class, i, key, res)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	for i, value := range dynamic {
		v, err := class.coerce(len(static)+i, value)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return class.call(args)
}
