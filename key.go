package di

import "reflect"

// Key identifies a registration in a Container.
//
// Any comparable value can be a key: a *Class, an *Interface, a
// reflect.Type, a string and so on. Keys are compared with ==.
type Key = any

var anyType = reflect.TypeFor[any]()

// validateKey rejects nil, typed nil and non-comparable keys, as well as
// the empty interface type.
func validateKey(key Key) error {
	if key == nil {
		return InvalidKeyError{Key: key}
	}

	if t, ok := key.(reflect.Type); ok && t == anyType {
		return InvalidKeyError{Key: key}
	}

	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return InvalidKeyError{Key: key}
		}
	}

	// The dynamic check also catches comparable types holding values that
	// are not, such as a struct with an interface field set to a slice.
	if !v.Comparable() {
		return InvalidKeyError{Key: key}
	}

	if w, ok := key.(wrappingKey); ok {
		if err := validateKey(w.inner()); err != nil {
			return InvalidKeyError{Key: key}
		}
	}

	return nil
}

// wrappingKey is implemented by keys built around another key.
type wrappingKey interface {
	inner() Key
}

// selfResolvingKey is implemented by the keys returned from All, Lazy and
// Optional. A container hands such a key its own resolution instead of
// looking it up.
type selfResolvingKey interface {
	resolveSelf(handler, requestor *Container, res *resolution) (any, error)
}

// KeyRegisterer is implemented by keys that know how to register
// themselves on a container when a lookup misses, such as *Class and
// *Interface. RegisterKey registers a resolver for key on c and returns it.
type KeyRegisterer interface {
	RegisterKey(c *Container, key Key) (*Resolver, error)
}

// Registry is implemented by anything that can register itself on a container.
type Registry interface {
	Register(c *Container) error
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(c *Container) error

// Register calls f(c).
func (f RegistryFunc) Register(c *Container) error {
	return f(c)
}
