package testutil

import (
	"testing"

	"github.com/junioryono/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolvable checks that key resolves to a non-nil T
func AssertResolvable[T any](t *testing.T, c *di.Container, key di.Key) T {
	t.Helper()
	value, err := di.Resolve[T](c, key)
	require.NoError(t, err, "failed to resolve %v", key)
	require.NotNil(t, value, "resolved value is nil")
	return value
}

// AssertSameInstance verifies two values are the same instance
func AssertSameInstance(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	assert.Same(t, expected, actual, msgAndArgs...)
}

// AssertDifferentInstances verifies two values are different instances
func AssertDifferentInstances(t *testing.T, first, second any, msgAndArgs ...any) {
	t.Helper()
	assert.NotSame(t, first, second, msgAndArgs...)
}

// AssertErrorType checks if an error is of a specific type
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	require.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}

// AssertCircularDependency checks if an error is a circular dependency error
func AssertCircularDependency(t *testing.T, err error) di.CircularDependencyError {
	t.Helper()
	return AssertErrorType[di.CircularDependencyError](t, err, "expected circular dependency error, got: %v", err)
}
