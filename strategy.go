package di

import (
	"encoding/json"
	"fmt"
)

// Strategy specifies how a Resolver produces its value.
type Strategy uint8

const (
	// Instance returns a stored value as is.
	Instance Strategy = iota

	// Singleton constructs a class once, on the container where the
	// resolver was found, and returns the cached value afterwards.
	// After the first successful construction the resolver reports Instance.
	Singleton

	// Transient constructs a new value on every resolution, using the
	// container that made the request.
	Transient

	// Callback invokes a CallbackFunc on every resolution.
	Callback

	// Array holds several resolvers registered under the same key.
	// Get resolves the first, GetAll resolves all of them in order.
	Array

	// Alias forwards resolution to another key.
	Alias
)

// String returns the string representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case Instance:
		return "Instance"
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Callback:
		return "Callback"
	case Array:
		return "Array"
	case Alias:
		return "Alias"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// IsValid checks if the strategy is one of the known values.
func (s Strategy) IsValid() bool {
	return s <= Alias
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, UnknownResolverStrategyError{Strategy: s}
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Instance", "instance":
		*s = Instance
	case "Singleton", "singleton":
		*s = Singleton
	case "Transient", "transient":
		*s = Transient
	case "Callback", "callback":
		*s = Callback
	case "Array", "array":
		*s = Array
	case "Alias", "alias":
		*s = Alias
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResolverStrategy, string(text))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Strategy) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strategy) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}

	return s.UnmarshalText([]byte(text))
}
