package di

import (
	"fmt"
	"reflect"
)

// Resolve is a generic helper function that resolves key as type T.
func Resolve[T any](c *Container, key Key) (T, error) {
	var zero T

	instance, err := c.Get(key)
	if err != nil {
		return zero, err
	}

	return as[T](instance, "Resolve")
}

// ResolveType resolves the key reflect.TypeFor[T]().
func ResolveType[T any](c *Container) (T, error) {
	return Resolve[T](c, reflect.TypeFor[T]())
}

// ResolveAll is a generic helper function that resolves every
// registration of key as []T.
func ResolveAll[T any](c *Container, key Key) ([]T, error) {
	instances, err := c.GetAll(key)
	if err != nil {
		return nil, err
	}

	results := make([]T, 0, len(instances))
	for i, instance := range instances {
		result, err := as[T](instance, fmt.Sprintf("ResolveAll item %d", i))
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// MustResolve resolves key and panics on error.
func MustResolve[T any](c *Container, key Key) T {
	result, err := Resolve[T](c, key)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %T: %v", *new(T), err))
	}
	return result
}

// MustResolveAll resolves every registration of key and panics on error.
func MustResolveAll[T any](c *Container, key Key) []T {
	results, err := ResolveAll[T](c, key)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve all %T: %v", *new(T), err))
	}
	return results
}

func as[T any](instance any, context string) (T, error) {
	var zero T
	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: reflect.TypeFor[T](),
			Actual:   reflect.TypeOf(instance),
			Context:  context,
		}
	}

	return result, nil
}
