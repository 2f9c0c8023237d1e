package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
)

// TestService is a basic test service
type TestService struct {
	ID     string
	Logger TestLogger
}

// NewTestService creates a new test service
func NewTestService(logger TestLogger) *TestService {
	return &TestService{
		ID:     uuid.NewString(),
		Logger: logger,
	}
}

// TestLogger is a test logger interface
type TestLogger interface {
	Log(msg string)
	GetLogs() []string
}

// TestLoggerImpl implements TestLogger
type TestLoggerImpl struct {
	ID   string
	logs []string
	mu   sync.Mutex
}

func NewTestLogger() TestLogger {
	return &TestLoggerImpl{ID: uuid.NewString()}
}

func (l *TestLoggerImpl) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLoggerImpl) GetLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.logs))
	copy(result, l.logs)
	return result
}

// TestDatabase is a test database interface
type TestDatabase interface {
	Query(sql string) string
}

// TestDatabaseImpl implements TestDatabase
type TestDatabaseImpl struct {
	Name string
}

func NewTestDatabase() TestDatabase {
	return &TestDatabaseImpl{Name: "default"}
}

func (d *TestDatabaseImpl) Query(sql string) string {
	return d.Name + ": " + sql
}

// Counter counts constructor invocations.
type Counter struct {
	n atomic.Int64
}

// Inc increments the counter and returns the new value.
func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

// Count returns the current value.
func (c *Counter) Count() int64 {
	return c.n.Load()
}

// Counted is constructed by counting constructors.
type Counted struct {
	N int64
}

// CountingConstructor returns a constructor producing a new *Counted on
// every call and recording the call on counter.
func CountingConstructor(counter *Counter) func() *Counted {
	return func() *Counted {
		return &Counted{N: counter.Inc()}
	}
}
