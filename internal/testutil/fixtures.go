package testutil

import (
	"testing"

	"github.com/junioryono/di"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewContainer returns a root container logging to the test.
func NewContainer(t *testing.T, opts ...di.Option) *di.Container {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
	return di.NewContainer(append([]di.Option{di.WithLogger(logger)}, opts...)...)
}

// NewContainerWith returns a container with items registered.
func NewContainerWith(t *testing.T, items ...any) *di.Container {
	t.Helper()
	c := NewContainer(t)
	require.NoError(t, c.Register(items...))
	return c
}

// CountingClass returns a class over CountingConstructor.
func CountingClass(t *testing.T, counter *Counter, opts ...di.ClassOption) *di.Class {
	t.Helper()
	class, err := di.NewClass(CountingConstructor(counter), opts...)
	require.NoError(t, err)
	return class
}

// ErrorTestCase represents a test case for error scenarios
type ErrorTestCase struct {
	Name      string
	Setup     func(t *testing.T) *di.Container
	Action    func(c *di.Container) error
	WantError error
	CheckErr  func(t *testing.T, err error)
}

// RunErrorTestCases executes error test cases
func RunErrorTestCases(t *testing.T, cases []ErrorTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			c := tc.Setup(t)
			err := tc.Action(c)

			require.Error(t, err)
			if tc.WantError != nil {
				require.ErrorIs(t, err, tc.WantError)
			}

			if tc.CheckErr != nil {
				tc.CheckErr(t, err)
			}
		})
	}
}
