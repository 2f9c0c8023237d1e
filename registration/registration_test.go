package registration_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/junioryono/di"
	"github.com/junioryono/di/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Label string
}

func newWidget(label string) *widget {
	return &widget{Label: label}
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	class, err := di.NewClass(newWidget, di.Inject("label"))
	require.NoError(t, err)

	t.Run("instance", func(t *testing.T) {
		t.Parallel()

		r := registration.Instance("label", "x")
		assert.Equal(t, di.Instance, r.Strategy())
		assert.Equal(t, "label", r.Key())
	})

	t.Run("singleton", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("label", "one"),
			registration.Singleton("widget", class),
		))

		first, err := c.Get("widget")
		require.NoError(t, err)
		second, err := c.Get("widget")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("transient", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("label", "one"),
			registration.Transient("widget", class),
		))

		first, err := c.Get("widget")
		require.NoError(t, err)
		second, err := c.Get("widget")
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, "one", first.(*widget).Label)
	})

	t.Run("callback", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		child := c.CreateChild()
		require.NoError(t, c.Register(registration.Callback("who", func(handler, requestor *di.Container, _ *di.Resolver) (any, error) {
			return [2]string{handler.ID(), requestor.ID()}, nil
		})))

		value, err := child.Get("who")
		require.NoError(t, err)
		assert.Equal(t, [2]string{c.ID(), child.ID()}, value)
	})

	t.Run("alias", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("label", "aliased"),
			registration.Singleton("widget", class),
			registration.Alias("widget", "gadget"),
		))

		widget, err := c.Get("widget")
		require.NoError(t, err)
		gadget, err := c.Get("gadget")
		require.NoError(t, err)
		assert.Same(t, widget, gadget)
	})
}

type plugin struct {
	name string
}

func (p *plugin) Register(c *di.Container) error {
	return c.Register(registration.Instance("plugin", p.name))
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	t.Run("constructs with dynamic dependencies", func(t *testing.T) {
		t.Parallel()

		class, err := di.NewClass(func(prefix string, flags ...any) *plugin {
			return &plugin{name: fmt.Sprintf("%s-plugin%v", prefix, flags)}
		}, di.Inject("prefix"))
		require.NoError(t, err)

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("prefix", "auth"),
			registration.Transient(class, class),
			registration.Interpret(class, 1, 2),
		))

		value, err := c.Get("plugin")
		require.NoError(t, err)
		assert.Equal(t, "auth-plugin[1 2]", value)
	})

	t.Run("registers itself on a miss", func(t *testing.T) {
		t.Parallel()

		class, err := di.NewClass(func() *plugin { return &plugin{name: "jit"} })
		require.NoError(t, err)

		c := di.NewContainer()
		require.NoError(t, c.Register(registration.Interpret(class)))

		value, err := c.Get("plugin")
		require.NoError(t, err)
		assert.Equal(t, "jit", value)
	})

	t.Run("resolves non-constructing registrations", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("registry", &plugin{name: "instance"}),
			registration.Interpret("registry"),
		))

		value, err := c.Get("plugin")
		require.NoError(t, err)
		assert.Equal(t, "instance", value)
	})

	t.Run("ignores values that are not registries", func(t *testing.T) {
		t.Parallel()

		c := di.NewContainer()
		require.NoError(t, c.Register(
			registration.Instance("number", 7),
			registration.Interpret("number"),
		))
		assert.False(t, c.Has("plugin", true))
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		c := di.NewContainer()
		require.NoError(t, c.Register(registration.Callback("failing", func(_, _ *di.Container, _ *di.Resolver) (any, error) {
			return nil, boom
		})))

		err := c.Register(registration.Interpret("failing"))
		assert.ErrorIs(t, err, boom)

		err = c.Register(registration.Interpret("unknown"))
		assert.ErrorIs(t, err, di.ErrNotConstructable)
	})
}
