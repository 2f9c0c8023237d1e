package di

import (
	"time"

	"github.com/junioryono/di/internal/reflection"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Observer receives container events. Implementations must be safe for
// concurrent use. See package diprom for a Prometheus implementation.
type Observer interface {
	// Registered is called after a resolver is registered under key.
	Registered(key Key, strategy Strategy)

	// JITRegistered is called after a key registered itself on a miss.
	JITRegistered(key Key)

	// Constructed is called after a class instance is built.
	Constructed(class *Class, duration time.Duration)

	// ResolveFailed is called when Get returns an error.
	ResolveFailed(key Key, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) Registered(Key, Strategy)          {}
func (NopObserver) JITRegistered(Key)                 {}
func (NopObserver) Constructed(*Class, time.Duration) {}
func (NopObserver) ResolveFailed(Key, error)          {}

// Configuration is shared by a root container and its children unless a
// child is created with options of its own. It owns the factory cache.
type Configuration struct {
	factories *xsync.MapOf[*Class, *Factory]
	analyzer  *reflection.Analyzer
	logger    *zap.Logger
	observer  Observer
}

// Option configures a Configuration.
type Option interface {
	apply(*Configuration)
}

// optionFunc adapts a function to Option.
type optionFunc func(*Configuration)

func (f optionFunc) apply(cfg *Configuration) {
	f(cfg)
}

// WithLogger sets the logger used for debug events. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *Configuration) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithObserver sets the observer notified of container events.
func WithObserver(observer Observer) Option {
	return optionFunc(func(cfg *Configuration) {
		if observer != nil {
			cfg.observer = observer
		}
	})
}

func newConfiguration(opts ...Option) *Configuration {
	cfg := &Configuration{
		factories: xsync.NewMapOf[*Class, *Factory](),
		analyzer:  reflection.New(),
		logger:    zap.NewNop(),
		observer:  NopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
	return cfg
}

// derive returns a configuration with a fresh factory cache that inherits
// the logger and observer unless opts override them.
func (cfg *Configuration) derive(opts []Option) *Configuration {
	next := &Configuration{
		factories: xsync.NewMapOf[*Class, *Factory](),
		analyzer:  reflection.New(),
		logger:    cfg.logger,
		observer:  cfg.observer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(next)
		}
	}
	return next
}

// Logger returns the configured logger.
func (cfg *Configuration) Logger() *zap.Logger {
	return cfg.logger
}

// FactoryCount returns the number of cached factories.
func (cfg *Configuration) FactoryCount() int {
	return cfg.factories.Size()
}

// factory returns the cached factory for class, creating it on first use.
func (cfg *Configuration) factory(class *Class) *Factory {
	f, loaded := cfg.factories.LoadOrCompute(class, func() *Factory {
		return newFactory(class)
	})
	if !loaded {
		cfg.logger.Debug("created factory", zap.Stringer("class", class))
	}
	return f
}
