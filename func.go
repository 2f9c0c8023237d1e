package di

import (
	"fmt"
	"reflect"

	"github.com/junioryono/di/internal/reflection"
)

// Func is a function whose parameters are resolved from a container at
// call time. Without keys, the parameter types are used as keys.
type Func struct {
	info         *reflection.FuncInfo
	dependencies []Key
}

// NewFunc wraps fn. When keys are given they replace the parameter types,
// in order.
func NewFunc(fn any, keys ...Key) (*Func, error) {
	info, err := reflection.Analyze(fn)
	if err != nil {
		return nil, RegistrationError{Value: fn, Operation: "create-func", Cause: err}
	}
	return newFunc(info, keys), nil
}

func newFunc(info *reflection.FuncInfo, keys []Key) *Func {
	f := &Func{info: info}
	if len(keys) > 0 {
		f.dependencies = append([]Key(nil), keys...)
	} else {
		f.dependencies = make([]Key, len(info.Params))
		for i, p := range info.Params {
			f.dependencies[i] = p
		}
	}
	return f
}

// Dependencies returns the keys resolved for each call.
func (f *Func) Dependencies() []Key {
	return append([]Key(nil), f.dependencies...)
}

// Invoke resolves the dependencies from c and calls the function, passing
// dynamic after the resolved values. A trailing error result is returned
// as the error; the remaining results are returned in order.
func (f *Func) Invoke(c *Container, dynamic ...any) ([]any, error) {
	if c == nil {
		return nil, ErrContainerNil
	}

	if n := len(f.dependencies) + len(dynamic); !f.info.Accepts(n) {
		return nil, ConstructorInvocationError{
			Constructor: f.info.Type,
			Parameters:  f.info.ParamTypes(),
			Cause:       fmt.Errorf("function takes %d arguments, got %d", len(f.info.Params), n),
		}
	}

	args := make([]reflect.Value, 0, len(f.dependencies)+len(dynamic))
	for i, key := range f.dependencies {
		value, err := c.Get(key)
		if err != nil {
			return nil, err
		}
		v, err := f.coerce(i, value)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	for i, value := range dynamic {
		v, err := f.coerce(len(f.dependencies)+i, value)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	out, err := reflection.Call(f.info, args)
	if err != nil {
		if p, ok := err.(*reflection.PanicError); ok {
			return nil, ConstructorPanicError{Constructor: f.info.Type, Panic: p.Value, Stack: p.Stack}
		}
		return nil, err
	}

	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func (f *Func) coerce(index int, value any) (reflect.Value, error) {
	target := f.info.ParamType(index)
	v, ok := reflection.Coerce(value, target)
	if !ok {
		return reflect.Value{}, TypeMismatchError{
			Expected: target,
			Actual:   reflect.TypeOf(value),
			Context:  fmt.Sprintf("argument %d of %s", index, formatType(f.info.Type)),
		}
	}
	return v, nil
}

// Invoke calls fn with its parameters resolved from c by type. fn may
// also be a *Func. Analysis of plain functions is cached on the
// configuration.
func (c *Container) Invoke(fn any, dynamic ...any) ([]any, error) {
	if f, ok := fn.(*Func); ok {
		return f.Invoke(c, dynamic...)
	}

	info, err := c.config.analyzer.Analyze(fn)
	if err != nil {
		return nil, RegistrationError{Value: fn, Operation: "invoke", Cause: err}
	}
	return newFunc(info, nil).Invoke(c, dynamic...)
}
