package chi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"github.com/junioryono/di"
	"github.com/junioryono/di/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testService struct {
	ID string
}

type testController struct {
	Service *testService
	Request *http.Request
	Params  Params
}

func (c *testController) GetValue(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(c.Service.ID + ":" + c.Params["id"]))
}

func (c *testController) Panic(http.ResponseWriter, *http.Request) {
	panic("test panic")
}

var controllerClass = di.MustClass(
	func(svc *testService, r *http.Request, p Params) *testController {
		return &testController{Service: svc, Request: r, Params: p}
	},
	di.Inject("service", RequestKey, ParamsKey),
)

func newRoot(t *testing.T) *di.Container {
	t.Helper()
	root := di.NewContainer(di.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, root.Register(registration.Instance("service", &testService{ID: "svc"})))
	return root
}

func TestScopeMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("attaches a child container per request", func(t *testing.T) {
		t.Parallel()

		root := newRoot(t)
		seen := make([]*di.Container, 0, 2)

		handler := ScopeMiddleware(root)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := di.FromContext(r.Context())
			require.NoError(t, err)
			assert.Same(t, root, scope.Parent())

			req, err := di.Resolve[*http.Request](scope, RequestKey)
			require.NoError(t, err)
			assert.Equal(t, "/test", req.URL.Path)

			seen = append(seen, scope)
			w.WriteHeader(http.StatusNoContent)
		}))

		for range 2 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}

		require.Len(t, seen, 2)
		assert.NotSame(t, seen[0], seen[1])
	})

	t.Run("middlewares run in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		handler := ScopeMiddleware(newRoot(t),
			WithMiddleware(func(c *di.Container, _ *http.Request) error {
				order = append(order, "first")
				return c.Register(registration.Instance("user", "alice"))
			}),
			WithMiddleware(func(*di.Container, *http.Request) error {
				order = append(order, "second")
				return nil
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, _ := di.FromContext(r.Context())
			user, err := di.Resolve[string](scope, "user")
			require.NoError(t, err)
			_, _ = w.Write([]byte(user))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, []string{"first", "second"}, order)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("middleware error stops the chain", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("denied")
		var handled error
		nextCalled := false

		handler := ScopeMiddleware(newRoot(t),
			WithMiddleware(func(*di.Container, *http.Request) error { return boom }),
			WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				handled = err
				w.WriteHeader(http.StatusForbidden)
			}),
		)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			nextCalled = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.ErrorIs(t, handled, boom)
		assert.False(t, nextCalled)
	})

	t.Run("default error handler returns 500", func(t *testing.T) {
		t.Parallel()

		handler := ScopeMiddleware(newRoot(t),
			WithMiddleware(func(*di.Container, *http.Request) error { return errors.New("boom") }),
		)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandle(t *testing.T) {
	t.Parallel()

	t.Run("resolves controller with route params", func(t *testing.T) {
		t.Parallel()

		r := gochi.NewRouter()
		r.Use(ScopeMiddleware(newRoot(t)))
		r.Get("/items/{id}", Handle(controllerClass, (*testController).GetValue))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "svc:42", rec.Body.String())
	})

	t.Run("controller is built per request", func(t *testing.T) {
		t.Parallel()

		var controllers []*testController
		capture := func(c *testController, w http.ResponseWriter, _ *http.Request) {
			controllers = append(controllers, c)
			w.WriteHeader(http.StatusOK)
		}

		r := gochi.NewRouter()
		r.Use(ScopeMiddleware(newRoot(t)))
		r.Get("/", Handle(controllerClass, capture))

		for range 2 {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}

		require.Len(t, controllers, 2)
		assert.NotSame(t, controllers[0], controllers[1])
		assert.NotSame(t, controllers[0].Request, controllers[1].Request)
	})

	t.Run("missing container", func(t *testing.T) {
		t.Parallel()

		var handled error
		handler := Handle(controllerClass, (*testController).GetValue,
			WithScopeErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				handled = err
				w.WriteHeader(http.StatusServiceUnavailable)
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.ErrorIs(t, handled, di.ErrNoContainer)
	})

	t.Run("resolution failure", func(t *testing.T) {
		t.Parallel()

		root := di.NewContainer()
		r := gochi.NewRouter()
		r.Use(ScopeMiddleware(root))
		r.Get("/", Handle(controllerClass, (*testController).GetValue))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic recovery", func(t *testing.T) {
		t.Parallel()

		var recovered any
		r := gochi.NewRouter()
		r.Use(ScopeMiddleware(newRoot(t)))
		r.Get("/", Handle(controllerClass, (*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(w http.ResponseWriter, _ *http.Request, v any) {
				recovered = v
				w.WriteHeader(http.StatusInternalServerError)
			}),
		))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "test panic", recovered)
	})
}

func TestRouteParams(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	params, err := routeParams(req)(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, params)
}
