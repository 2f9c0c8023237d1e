package di

import "sync"

// All returns a key resolving to every registration of key on the nearest
// container that has one, as a []any. An empty slice means none.
// A constructor parameter of any slice type receives the values converted.
func All(key Key) Key {
	return allKey{key: key}
}

// Lazy returns a key resolving to a LazyFunc that resolves key on first
// call. The result is cached after the first successful call.
func Lazy(key Key) Key {
	return lazyKey{key: key}
}

// Optional returns a key resolving to key's value when some container in
// the chain has it registered, and to nil otherwise. It never registers key.
func Optional(key Key) Key {
	return optionalKey{key: key}
}

type allKey struct{ key Key }

func (k allKey) inner() Key { return k.key }

func (k allKey) resolveSelf(_, requestor *Container, res *resolution) (any, error) {
	return requestor.getAll(k.key, res)
}

func (k allKey) String() string {
	return "All(" + formatKey(k.key) + ")"
}

// LazyFunc resolves a value on demand.
type LazyFunc func() (any, error)

type lazyKey struct{ key Key }

func (k lazyKey) inner() Key { return k.key }

func (k lazyKey) resolveSelf(_, requestor *Container, res *resolution) (any, error) {
	origin := res.fork()
	var (
		mu       sync.Mutex
		resolved bool
		instance any
	)
	return LazyFunc(func() (any, error) {
		mu.Lock()
		defer mu.Unlock()

		if resolved {
			return instance, nil
		}

		value, err := requestor.get(k.key, origin.begin())
		if err != nil {
			return nil, err
		}
		if value != nil {
			instance, resolved = value, true
		}
		return value, nil
	}), nil
}

func (k lazyKey) String() string {
	return "Lazy(" + formatKey(k.key) + ")"
}

type optionalKey struct{ key Key }

func (k optionalKey) inner() Key { return k.key }

func (k optionalKey) resolveSelf(_, requestor *Container, res *resolution) (any, error) {
	if !requestor.Has(k.key, true) {
		return nil, nil
	}
	return requestor.get(k.key, res)
}

func (k optionalKey) String() string {
	return "Optional(" + formatKey(k.key) + ")"
}
