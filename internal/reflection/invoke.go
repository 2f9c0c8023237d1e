package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// PanicError is returned by Call when the invoked function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Call invokes the function described by info with args.
// A non-nil trailing error result is returned as err; a panic is recovered
// and returned as a *PanicError.
func Call(info *FuncInfo, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	out := info.Value.Call(args)

	if info.HasErrorReturn {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	return out, nil
}

// Coerce converts value into a reflect.Value assignable to target.
//
// A nil value becomes the zero value of target. A []any is converted
// element by element into a slice of target's element type.
func Coerce(value any, target reflect.Type) (reflect.Value, bool) {
	if value == nil {
		return reflect.Zero(target), isNillable(target)
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		return assign(v, target), true
	}

	if items, ok := value.([]any); ok && target.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(target, len(items), len(items))
		for i, item := range items {
			elem, ok := Coerce(item, target.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			slice.Index(i).Set(elem)
		}
		return slice, true
	}

	return reflect.Value{}, false
}

// SetField assigns value to the exported field name of the struct target
// points to.
func SetField(target any, name string, value any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("field injection requires a non-nil struct pointer, got %T", target)
	}

	field := v.Elem().FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("%T has no field %q", target, name)
	}
	if !field.CanSet() {
		return fmt.Errorf("field %q of %T is not settable", name, target)
	}

	coerced, ok := Coerce(value, field.Type())
	if !ok {
		return fmt.Errorf("cannot assign %T to field %q of type %v", value, name, field.Type())
	}

	field.Set(coerced)
	return nil
}

func assign(v reflect.Value, target reflect.Type) reflect.Value {
	if v.Type() == target {
		return v
	}
	out := reflect.New(target).Elem()
	out.Set(v)
	return out
}

func isNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
