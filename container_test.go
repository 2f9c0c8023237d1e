package di_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/junioryono/di"
	"github.com/junioryono/di/internal/testutil"
	"github.com/junioryono/di/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	Name string
}

func newNamed(name string) *named {
	return &named{Name: name}
}

func TestContainer_Get(t *testing.T) {
	t.Parallel()

	t.Run("instance", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerWith(t, registration.Instance("answer", 42))

		value, err := c.Get("answer")
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	})

	t.Run("instance may hold nil", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerWith(t, registration.Instance("nothing", nil))

		value, err := c.Get("nothing")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("callback runs on every request", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := testutil.NewContainerWith(t, registration.Callback("tick", func(_, _ *di.Container, _ *di.Resolver) (any, error) {
			calls++
			return calls, nil
		}))

		first, err := c.Get("tick")
		require.NoError(t, err)
		second, err := c.Get("tick")
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 2, second)
	})

	t.Run("alias forwards", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerWith(t,
			registration.Instance("original", "value"),
			registration.Alias("original", "alias"),
		)

		value, err := c.Get("alias")
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	})

	t.Run("singleton constructs once", func(t *testing.T) {
		t.Parallel()

		counter := &testutil.Counter{}
		class := testutil.CountingClass(t, counter)
		c := testutil.NewContainerWith(t, registration.Singleton("counted", class))

		first, err := c.Get("counted")
		require.NoError(t, err)
		second, err := c.Get("counted")
		require.NoError(t, err)

		testutil.AssertSameInstance(t, first, second)
		assert.Equal(t, int64(1), counter.Count())
	})

	t.Run("transient constructs every time", func(t *testing.T) {
		t.Parallel()

		counter := &testutil.Counter{}
		class := testutil.CountingClass(t, counter)
		c := testutil.NewContainerWith(t, registration.Transient("counted", class))

		first, err := c.Get("counted")
		require.NoError(t, err)
		second, err := c.Get("counted")
		require.NoError(t, err)

		testutil.AssertDifferentInstances(t, first, second)
		assert.Equal(t, int64(2), counter.Count())
	})

	t.Run("unregistered non constructable key", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainer(t)

		_, err := c.Get("missing")
		require.ErrorIs(t, err, di.ErrNotConstructable)

		resErr := testutil.AssertErrorType[di.ResolutionError](t, err)
		assert.Equal(t, "missing", resErr.Key)
		assert.False(t, c.Has("missing", true))
	})

	t.Run("invalid keys", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainer(t)

		keys := []any{
			nil,
			(*di.Class)(nil),
			[]string{"a"},
			reflect.TypeFor[any](),
			struct{ X any }{X: []int{1}},
			di.All([]int{1}),
			di.Lazy(nil),
			di.Optional(map[string]int{}),
		}
		for _, key := range keys {
			_, err := c.Get(key)
			assert.ErrorIs(t, err, di.ErrInvalidKey, "key %#v", key)

			_, err = c.GetAll(key)
			assert.ErrorIs(t, err, di.ErrInvalidKey, "key %#v", key)

			_, err = c.RegisterResolver(key, di.NewResolver(key, di.Instance, 1))
			assert.ErrorIs(t, err, di.ErrInvalidKey, "key %#v", key)
			assert.False(t, c.Has(key, true))
		}
	})
}

func TestContainer_ClassAsKey(t *testing.T) {
	t.Parallel()

	logger := di.MustClass(testutil.NewTestLogger)
	service := di.MustClass(testutil.NewTestService, di.Inject(logger))

	c := testutil.NewContainer(t)

	svc := testutil.AssertResolvable[*testutil.TestService](t, c, service)
	log := testutil.AssertResolvable[testutil.TestLogger](t, c, logger)

	assert.Same(t, log, svc.Logger)
	assert.True(t, c.Has(service, false))
	assert.True(t, c.Has(logger, false))

	resolver, err := c.GetResolver(service, false)
	require.NoError(t, err)
	assert.Equal(t, di.Instance, resolver.Strategy(), "resolved singleton reports Instance")
	assert.Nil(t, resolver.GetFactory(c))
}

func TestContainer_ArrayRegistration(t *testing.T) {
	t.Parallel()

	c := testutil.NewContainerWith(t,
		registration.Instance("plugin", "first"),
		registration.Instance("plugin", "second"),
	)

	value, err := c.Get("plugin")
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	all, err := c.GetAll("plugin")
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second"}, all)

	require.NoError(t, c.Register(registration.Instance("plugin", "third")))

	all, err = c.GetAll("plugin")
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second", "third"}, all)

	resolver, err := c.GetResolver("plugin", false)
	require.NoError(t, err)
	assert.Equal(t, di.Array, resolver.Strategy())
	assert.Len(t, resolver.Resolvers(), 3)

	typed, err := di.ResolveAll[string](c, "plugin")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, typed)
}

func TestContainer_GetAll(t *testing.T) {
	t.Parallel()

	t.Run("single registration", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerWith(t, registration.Instance("one", 1))

		all, err := c.GetAll("one")
		require.NoError(t, err)
		assert.Equal(t, []any{1}, all)
	})

	t.Run("missing key never registers", func(t *testing.T) {
		t.Parallel()

		class := testutil.CountingClass(t, &testutil.Counter{})
		c := testutil.NewContainer(t)

		all, err := c.GetAll(class)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
		assert.False(t, c.Has(class, true))
	})

	t.Run("nearest container wins", func(t *testing.T) {
		t.Parallel()

		root := testutil.NewContainerWith(t,
			registration.Instance("handler", "root-a"),
			registration.Instance("handler", "root-b"),
		)
		child := root.CreateChild()
		require.NoError(t, child.Register(registration.Instance("handler", "child")))

		all, err := child.GetAll("handler")
		require.NoError(t, err)
		assert.Equal(t, []any{"child"}, all)

		all, err = root.CreateChild().GetAll("handler")
		require.NoError(t, err)
		assert.Equal(t, []any{"root-a", "root-b"}, all)
	})
}

func TestContainer_Has(t *testing.T) {
	t.Parallel()

	root := testutil.NewContainerWith(t, registration.Instance("key", 1))
	child := root.CreateChild()

	assert.True(t, root.Has("key", false))
	assert.False(t, child.Has("key", false))
	assert.True(t, child.Has("key", true))
	assert.False(t, child.Has("other", true))
	assert.False(t, child.Has(nil, true))
	assert.False(t, child.Has([]int{1}, true))

	assert.True(t, child.Has(di.IContainer, false))
}

func TestContainer_ChildContainers(t *testing.T) {
	t.Parallel()

	nameClass := di.MustClass(newNamed, di.Inject("name"))

	t.Run("singleton uses the container it was found on", func(t *testing.T) {
		t.Parallel()

		root := testutil.NewContainerWith(t,
			registration.Instance("name", "root"),
			registration.Singleton("named", nameClass),
		)
		child := root.CreateChild()
		require.NoError(t, child.Register(registration.Instance("name", "child")))

		fromChild := testutil.AssertResolvable[*named](t, child, "named")
		fromRoot := testutil.AssertResolvable[*named](t, root, "named")

		assert.Equal(t, "root", fromChild.Name)
		assert.Same(t, fromRoot, fromChild)
	})

	t.Run("transient uses the requesting container", func(t *testing.T) {
		t.Parallel()

		root := testutil.NewContainerWith(t,
			registration.Instance("name", "root"),
			registration.Transient("named", nameClass),
		)
		child := root.CreateChild()
		require.NoError(t, child.Register(registration.Instance("name", "child")))

		assert.Equal(t, "child", testutil.AssertResolvable[*named](t, child, "named").Name)
		assert.Equal(t, "root", testutil.AssertResolvable[*named](t, root, "named").Name)
	})

	t.Run("jit registration lands on the requesting container", func(t *testing.T) {
		t.Parallel()

		counter := &testutil.Counter{}
		class := testutil.CountingClass(t, counter)

		root := testutil.NewContainer(t)
		left := root.CreateChild()
		right := root.CreateChild()

		fromLeft := testutil.AssertResolvable[*testutil.Counted](t, left, class)
		fromRight := testutil.AssertResolvable[*testutil.Counted](t, right, class)

		assert.NotSame(t, fromLeft, fromRight)
		assert.True(t, left.Has(class, false))
		assert.True(t, right.Has(class, false))
		assert.False(t, root.Has(class, false))
	})

	t.Run("children see singletons registered on the root earlier", func(t *testing.T) {
		t.Parallel()

		class := testutil.CountingClass(t, &testutil.Counter{})
		root := testutil.NewContainer(t)

		fromRoot := testutil.AssertResolvable[*testutil.Counted](t, root, class)
		fromChild := testutil.AssertResolvable[*testutil.Counted](t, root.CreateChild(), class)

		assert.Same(t, fromRoot, fromChild)
	})

	t.Run("child without options shares the configuration", func(t *testing.T) {
		t.Parallel()

		class := testutil.CountingClass(t, &testutil.Counter{})
		root := testutil.NewContainer(t)
		child := root.CreateChild()

		assert.Same(t, root.Configuration(), child.Configuration())
		assert.Same(t, root.GetFactory(class), child.GetFactory(class))
		assert.Same(t, root, child.Parent())
		assert.NotEqual(t, root.ID(), child.ID())

		derived := root.CreateChild(di.WithObserver(di.NopObserver{}))
		assert.NotSame(t, root.Configuration(), derived.Configuration())
		assert.NotSame(t, root.GetFactory(class), derived.GetFactory(class))
	})
}

func TestContainer_ResolvesItself(t *testing.T) {
	t.Parallel()

	root := testutil.NewContainer(t)
	child := root.CreateChild()

	fromRoot, err := di.Resolve[*di.Container](root, di.IContainer)
	require.NoError(t, err)
	fromChild, err := di.Resolve[*di.Container](child, di.IContainer)
	require.NoError(t, err)
	byType, err := di.ResolveType[*di.Container](child)
	require.NoError(t, err)

	assert.Same(t, root, fromRoot)
	assert.Same(t, child, fromChild)
	assert.Same(t, child, byType)

	t.Run("constructors can depend on the container", func(t *testing.T) {
		class := di.MustClass(func(c *di.Container) *named { return &named{Name: c.ID()} }, di.AsTransient())

		value := testutil.AssertResolvable[*named](t, child, class)
		assert.Equal(t, child.ID(), value.Name)
	})
}

func TestContainer_Register(t *testing.T) {
	t.Parallel()

	t.Run("nested collections", func(t *testing.T) {
		t.Parallel()

		type group struct {
			First  *di.Resolver
			Second []any
			hidden *di.Resolver
		}

		c := testutil.NewContainer(t)
		err := c.Register(
			&group{
				First:  registration.Instance("first", 1),
				Second: []any{registration.Instance("second", 2)},
				hidden: registration.Instance("hidden", 0),
			},
			map[string]any{
				"b": registration.Instance("ordered", "b"),
				"a": registration.Instance("ordered", "a"),
			},
			nil,
		)
		require.NoError(t, err)

		assert.True(t, c.Has("first", false))
		assert.True(t, c.Has("second", false))
		assert.False(t, c.Has("hidden", false))

		all, err := c.GetAll("ordered")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, all)
	})

	t.Run("unsupported values", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainer(t)

		err := c.Register("not a registry")
		require.ErrorIs(t, err, di.ErrInvalidRegistration)
		regErr := testutil.AssertErrorType[di.RegistrationError](t, err)
		assert.Equal(t, "not a registry", regErr.Value)

		err = c.Register(42)
		require.ErrorIs(t, err, di.ErrInvalidRegistration)
	})

	t.Run("plain values inside collections are skipped", func(t *testing.T) {
		t.Parallel()

		type module struct {
			Name    string
			Service *di.Resolver
		}

		c := testutil.NewContainer(t)
		err := c.Register(
			[]any{"not a registry", 42, registration.Instance("listed", 1)},
			map[string]any{"label": "x", "entry": registration.Instance("mapped", 2)},
			module{Name: "m", Service: registration.Instance("field", 3)},
		)
		require.NoError(t, err)

		assert.True(t, c.Has("listed", false))
		assert.True(t, c.Has("mapped", false))
		assert.True(t, c.Has("field", false))
	})

	t.Run("registry func", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainer(t)
		err := c.Register(di.RegistryFunc(func(c *di.Container) error {
			return errors.New("boom")
		}))
		assert.EqualError(t, err, "boom")
	})
}

func TestContainer_RegisterResolver(t *testing.T) {
	t.Parallel()

	c := testutil.NewContainer(t)

	_, err := c.RegisterResolver(nil, registration.Instance("x", 1))
	assert.ErrorIs(t, err, di.ErrInvalidKey)

	_, err = c.RegisterResolver("x", nil)
	assert.ErrorIs(t, err, di.ErrResolverNil)

	resolver := registration.Instance("x", 1)
	returned, err := c.RegisterResolver("other", resolver)
	require.NoError(t, err)
	assert.Same(t, resolver, returned)

	value, err := c.Get("other")
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestContainer_GetResolver(t *testing.T) {
	t.Parallel()

	class := testutil.CountingClass(t, &testutil.Counter{}, di.AsTransient())
	c := testutil.NewContainer(t)

	resolver, err := c.GetResolver(class, false)
	require.NoError(t, err)
	assert.Nil(t, resolver)

	resolver, err = c.GetResolver(class, true)
	require.NoError(t, err)
	require.NotNil(t, resolver)
	assert.Equal(t, di.Transient, resolver.Strategy())
	assert.NotNil(t, resolver.GetFactory(c))

	_, err = c.GetResolver("unknown", true)
	assert.ErrorIs(t, err, di.ErrNotConstructable)

	_, err = c.GetResolver(nil, true)
	assert.ErrorIs(t, err, di.ErrInvalidKey)

	t.Run("self resolving keys", func(t *testing.T) {
		require.NoError(t, c.Register(registration.Instance("item", 1), registration.Instance("item", 2)))

		resolver, err := c.GetResolver(di.All("item"), true)
		require.NoError(t, err)
		assert.Equal(t, di.Callback, resolver.Strategy())

		value, err := resolver.Resolve(c, c)
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, value)
	})
}

func TestContainer_RegisterTransformer(t *testing.T) {
	t.Parallel()

	t.Run("applied in order", func(t *testing.T) {
		t.Parallel()

		class := di.MustClass(func() *named { return &named{} }, di.AsTransient())
		c := testutil.NewContainer(t)

		for _, suffix := range []string{"a", "b"} {
			ok, err := c.RegisterTransformer(class, func(instance any) any {
				n := instance.(*named)
				n.Name += suffix
				return n
			})
			require.NoError(t, err)
			require.True(t, ok)
		}

		value := testutil.AssertResolvable[*named](t, c, class)
		assert.Equal(t, "ab", value.Name)
	})

	t.Run("may replace the instance", func(t *testing.T) {
		t.Parallel()

		class := di.MustClass(func() *named { return &named{Name: "original"} })
		c := testutil.NewContainer(t)

		ok, err := c.RegisterTransformer(class, func(any) any { return &named{Name: "replaced"} })
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, "replaced", testutil.AssertResolvable[*named](t, c, class).Name)
	})

	t.Run("keys without a factory", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerWith(t, registration.Instance("value", 1))
		identity := func(v any) any { return v }

		ok, err := c.RegisterTransformer("value", identity)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.RegisterTransformer("unregistered", identity)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.RegisterTransformer(nil, identity)
		assert.ErrorIs(t, err, di.ErrInvalidKey)
		assert.False(t, ok)
	})
}

func TestContainer_ConcurrentAutoRegistration(t *testing.T) {
	t.Parallel()

	counter := &testutil.Counter{}
	class := testutil.CountingClass(t, counter)
	ICounted, err := di.CreateInterface("ICounted").WithDefault(func(b di.ResolverBuilder) (*di.Resolver, error) {
		time.Sleep(20 * time.Millisecond)
		return b.Singleton(class)
	})
	require.NoError(t, err)

	c := testutil.NewContainer(t)

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := c.Get(ICounted)
			assert.NoError(t, err)
			results[i] = value
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), counter.Count())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	all, err := c.GetAll(ICounted)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	resolver, err := c.GetResolver(ICounted, false)
	require.NoError(t, err)
	assert.NotEqual(t, di.Array, resolver.Strategy())
}

func TestContainer_ConcurrentSingleton(t *testing.T) {
	t.Parallel()

	counter := &testutil.Counter{}
	class := testutil.CountingClass(t, counter)
	root := testutil.NewContainerWith(t, class)

	var wg sync.WaitGroup
	results := make([]any, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := root.CreateChild()
			value, err := child.Get(class)
			assert.NoError(t, err)
			results[i] = value
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), counter.Count())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}
