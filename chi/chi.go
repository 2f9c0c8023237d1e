// Package chi provides di integration for the Chi router.
//
// ScopeMiddleware gives every request a child container holding the
// request, the response writer and the route parameters. Handle resolves a
// controller from that container and calls one of its methods.
//
// Example usage:
//
//	root := di.NewContainer(di.WithLogger(logger))
//	_ = root.Register(UserControllerClass)
//
//	r := gochi.NewRouter()
//	r.Use(dichi.ScopeMiddleware(root))
//
//	r.Get("/users/{id}", dichi.Handle(UserControllerClass, (*UserController).GetByID))
package chi

import (
	"net/http"
	"reflect"

	gochi "github.com/go-chi/chi/v5"
	"github.com/junioryono/di"
	"github.com/junioryono/di/registration"
	"go.uber.org/zap"
)

var (
	// RequestKey resolves the current *http.Request.
	RequestKey = reflect.TypeFor[*http.Request]()

	// ResponseWriterKey resolves the current http.ResponseWriter.
	ResponseWriterKey = reflect.TypeFor[http.ResponseWriter]()

	// ParamsKey resolves the route parameters of the current request as Params.
	ParamsKey = di.CreateInterface("RouteParams")
)

// Params holds the URL parameters matched by the router.
type Params map[string]string

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when populating the request container fails.
	// If nil, the error is logged and 500 Internal Server Error is returned.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares run after the request container is populated. They can
	// register request data such as the authenticated user.
	Middlewares []func(*di.Container, *http.Request) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for request container failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the request container is
// populated. Middlewares run in the order they are added.
func WithMiddleware(mw func(*di.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError(msg string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger(r).Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// logger returns the logger of the request container, or the global one.
func logger(r *http.Request) *zap.Logger {
	if c, err := di.FromContext(r.Context()); err == nil {
		return c.Logger()
	}
	return zap.L()
}

// ScopeMiddleware creates a Chi middleware that creates a child of root for
// each request and attaches it to the request context, where
// di.FromContext finds it.
//
// Example:
//
//	r := gochi.NewRouter()
//	r.Use(dichi.ScopeMiddleware(root))
func ScopeMiddleware(root *di.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := &Config{
		ErrorHandler: internalError("failed to prepare request container"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := root.CreateChild()
			r = r.WithContext(di.WithContainer(r.Context(), scope))

			err := scope.Register(
				registration.Instance(RequestKey, r),
				registration.Instance(ResponseWriterKey, w),
				registration.Callback(ParamsKey, routeParams(r)),
			)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// routeParams reads the route context on every resolution, since Chi
// fills it in only once routing has reached the handler.
func routeParams(r *http.Request) di.CallbackFunc {
	return func(_, _ *di.Container, _ *di.Resolver) (any, error) {
		params := Params{}
		rctx := gochi.RouteContext(r.Context())
		if rctx == nil {
			return params, nil
		}
		for i, key := range rctx.URLParams.Keys {
			if i < len(rctx.URLParams.Values) {
				params[key] = rctx.URLParams.Values[i]
			}
		}
		return params, nil
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ScopeErrorHandler is called when the request has no container.
	ScopeErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the controller cannot be resolved.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for requests without a container.
func WithScopeErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			logger(r).Error("panic in handler", zap.Any("panic", v))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
		ScopeErrorHandler:      internalError("failed to get container from context"),
		ResolutionErrorHandler: internalError("failed to resolve controller"),
	}
}

// Handle wraps a controller method. The controller is resolved under key
// from the container attached to the request context.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users/{id}", dichi.Handle(UserControllerClass, (*UserController).GetByID))
func Handle[T any](key di.Key, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		scope, err := di.FromContext(r.Context())
		if err != nil {
			cfg.ScopeErrorHandler(w, r, err)
			return
		}

		controller, err := di.Resolve[T](scope, key)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
