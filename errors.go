package di

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/junioryono/di/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are usually wrapped in typed errors when
// returned. Match them with errors.Is.

var (
	// Key errors.
	ErrInvalidKey = errors.New("invalid resolution key")

	// Interface errors.
	ErrInterfaceDefaultAlreadySet = errors.New("interface default already set")
	ErrNoDefault                  = errors.New("interface has no default registration")

	// Resolution errors.
	ErrUnresolvableDependency  = errors.New("unresolvable dependency")
	ErrUnknownResolverStrategy = errors.New("unknown resolver strategy")
	ErrNotConstructable        = errors.New("key cannot be constructed")
	ErrInvalidResolverState    = errors.New("resolver state does not match its strategy")

	// Validation errors.
	ErrConstructorNil      = errors.New("constructor cannot be nil")
	ErrContainerNil        = errors.New("container cannot be nil")
	ErrResolverNil         = errors.New("resolver cannot be nil")
	ErrInvalidRegistration = errors.New("value cannot be registered")
	ErrNoContainer         = errors.New("no container in context")
)

var (
	_ error = InvalidKeyError{}
	_ error = InterfaceDefaultAlreadySetError{}
	_ error = UnresolvableDependencyError{}
	_ error = UnknownResolverStrategyError{}
	_ error = ResolutionError{}
	_ error = RegistrationError{}
	_ error = ModuleError{}
	_ error = TypeMismatchError{}
	_ error = FieldInjectionError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// InvalidKeyError indicates a key that cannot identify a registration:
// nil, a typed nil, a non-comparable value or the empty interface type.
type InvalidKeyError struct {
	Key any
}

func (e InvalidKeyError) Error() string {
	if e.Key == nil {
		return "invalid resolution key: key is nil; did you forget to declare a dependency?"
	}
	return fmt.Sprintf("invalid resolution key: %T (%v)", e.Key, e.Key)
}

func (e InvalidKeyError) Unwrap() error {
	return ErrInvalidKey
}

// InterfaceDefaultAlreadySetError indicates WithDefault was called twice.
type InterfaceDefaultAlreadySetError struct {
	Interface string
}

func (e InterfaceDefaultAlreadySetError) Error() string {
	return fmt.Sprintf("default for %s has already been set", e.Interface)
}

func (e InterfaceDefaultAlreadySetError) Unwrap() error {
	return ErrInterfaceDefaultAlreadySet
}

// UnresolvableDependencyError indicates a nil dependency key at Index of a
// class with more than five dependencies.
type UnresolvableDependencyError struct {
	Class string
	Index int
}

func (e UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("dependency %d of %s is nil; check for a circular package import or a missing declaration", e.Index, e.Class)
}

func (e UnresolvableDependencyError) Unwrap() error {
	return ErrUnresolvableDependency
}

// UnknownResolverStrategyError indicates a resolver with a strategy
// outside the known set.
type UnknownResolverStrategyError struct {
	Strategy Strategy
}

func (e UnknownResolverStrategyError) Error() string {
	return fmt.Sprintf("unknown resolver strategy: %d", uint8(e.Strategy))
}

func (e UnknownResolverStrategyError) Unwrap() error {
	return ErrUnknownResolverStrategy
}

// CircularDependencyError represents a circular dependency in the container.
type CircularDependencyError = graph.CircularDependencyError

// ResolutionError wraps errors that occur while resolving Key.
type ResolutionError struct {
	Key   any
	Cause error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", formatKey(e.Key), e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors during registration.
type RegistrationError struct {
	Value     any
	Operation string // "register", "register-resolver", "create-class", etc.
	Cause     error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %T: %v", e.Operation, e.Value, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from registering a module.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value is not assignable where it is needed.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "argument 0 of *Service", "Resolve", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// FieldInjectionError indicates a field could not be injected after construction.
type FieldInjectionError struct {
	Class string
	Field string
	Cause error
}

func (e FieldInjectionError) Error() string {
	return fmt.Sprintf("failed to inject field %s of %s: %v", e.Field, e.Class, e.Cause)
}

func (e FieldInjectionError) Unwrap() error {
	return e.Cause
}

// ConstructorInvocationError for constructor call failures.
type ConstructorInvocationError struct {
	Constructor reflect.Type
	Parameters  []reflect.Type
	Cause       error
}

func (e ConstructorInvocationError) Error() string {
	paramStrs := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		paramStrs[i] = formatType(p)
	}
	return fmt.Sprintf("failed to invoke %s with parameters [%s]: %v",
		formatType(e.Constructor), strings.Join(paramStrs, ", "), e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a constructor panicked during invocation.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Constructor reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "constructor %s panicked: %v\n", formatType(e.Constructor), e.Panic)

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Check for nil pointer dereferences in your constructor\n")
	b.WriteString("  • Use di.Optional only for dependencies the constructor can live without\n")
	b.WriteString("  • Add nil checks for dependencies before using them\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// formatKey formats a resolution key for error messages.
func formatKey(key any) string {
	switch k := key.(type) {
	case nil:
		return "<nil>"
	case reflect.Type:
		return formatType(k)
	case string:
		return strconv.Quote(k)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%T(%v)", k, k)
	}
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Format pointers as *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
