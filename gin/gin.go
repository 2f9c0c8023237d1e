// Package gin provides di integration for the Gin web framework.
//
// ScopeMiddleware gives every request a child container holding the
// request, the gin.Context and the route parameters. Handle resolves a
// controller from that container and calls one of its methods.
//
// Example usage:
//
//	root := di.NewContainer(di.WithLogger(logger))
//
//	g := gin.New()
//	g.Use(digin.ScopeMiddleware(root))
//
//	g.GET("/users/:id", digin.Handle(UserControllerClass, (*UserController).GetByID))
package gin

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/di"
	"github.com/junioryono/di/registration"
	"go.uber.org/zap"
)

var (
	// RequestKey resolves the current *http.Request.
	RequestKey = reflect.TypeFor[*http.Request]()

	// ContextKey resolves the current *gin.Context.
	ContextKey = reflect.TypeFor[*gin.Context]()

	// ParamsKey resolves the route parameters of the current request as gin.Params.
	ParamsKey = reflect.TypeFor[gin.Params]()
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when populating the request container fails.
	// If nil, the error is logged and 500 Internal Server Error is returned.
	ErrorHandler func(*gin.Context, error)

	// Middlewares run after the request container is populated. They can
	// register request data such as the authenticated user.
	Middlewares []func(*di.Container, *gin.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for request container failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the request container is
// populated. Middlewares run in the order they are added.
//
// Example:
//
//	digin.ScopeMiddleware(root,
//	    digin.WithMiddleware(func(c *di.Container, ctx *gin.Context) error {
//	        return c.Register(registration.Instance(CurrentUser, ctx.GetString("user")))
//	    }),
//	)
func WithMiddleware(mw func(*di.Container, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func abort(msg string) func(*gin.Context, error) {
	return func(c *gin.Context, err error) {
		logger(c).Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal Server Error",
		})
	}
}

// logger returns the logger of the request container, or the global one.
func logger(c *gin.Context) *zap.Logger {
	if scope, err := di.FromContext(c.Request.Context()); err == nil {
		return scope.Logger()
	}
	return zap.L()
}

// ScopeMiddleware creates a gin.HandlerFunc that creates a child of root
// for each request and attaches it to the request context, where
// di.FromContext finds it.
//
// Example:
//
//	g := gin.New()
//	g.Use(digin.ScopeMiddleware(root))
func ScopeMiddleware(root *di.Container, opts ...Option) gin.HandlerFunc {
	cfg := &Config{
		ErrorHandler: abort("failed to prepare request container"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		scope := root.CreateChild()
		c.Request = c.Request.WithContext(di.WithContainer(c.Request.Context(), scope))

		err := scope.Register(
			registration.Instance(RequestKey, c.Request),
			registration.Instance(ContextKey, c),
			registration.Instance(ParamsKey, c.Params),
		)
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// ScopeErrorHandler is called when the request has no container.
	ScopeErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when the controller cannot be resolved.
	ResolutionErrorHandler func(*gin.Context, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics (requires WithPanicRecovery(true)).
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for requests without a container.
func WithScopeErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *gin.Context, r any) {
			logger(c).Error("panic in handler", zap.Any("panic", r))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
		ScopeErrorHandler:      abort("failed to get container from context"),
		ResolutionErrorHandler: abort("failed to resolve controller"),
	}
}

// Handle wraps a controller method. The controller is resolved under key
// from the container attached to the request context.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	g.GET("/users/:id", digin.Handle(UserControllerClass, (*UserController).GetByID))
func Handle[T any](key di.Key, method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		scope, err := di.FromContext(c.Request.Context())
		if err != nil {
			cfg.ScopeErrorHandler(c, err)
			return
		}

		controller, err := di.Resolve[T](scope, key)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}
