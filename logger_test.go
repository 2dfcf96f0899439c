package beans

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

type logger struct {
	t *testing.T
}

func (l *logger) getCallerInfo() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	relPath, err := filepath.Rel(wd, file)
	if err != nil {
		relPath = file
	}
	return fmt.Sprintf("%s:%d", relPath, line)
}

func (l *logger) Info(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[%s] INFO %s", l.getCallerInfo(), msg), args)
}

// Error does not fail the test: several tests provoke failures on purpose.
func (l *logger) Error(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[%s] ERROR %s", l.getCallerInfo(), msg), args)
}

func (l *logger) Warn(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[%s] WARN %s", l.getCallerInfo(), msg), args)
}

func (l *logger) Debug(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[%s] DEBUG %s", l.getCallerInfo(), msg), args)
}

// MockLogger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger keeps every entry for later assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, msg: msg, args: args})
}

func (r *recordingLogger) Info(msg string, args ...any)  { r.add("info", msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.add("error", msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.add("warn", msg, args) }
func (r *recordingLogger) Debug(msg string, args ...any) { r.add("debug", msg, args) }

func (r *recordingLogger) count(level, msgPrefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.level == level && strings.HasPrefix(e.msg, msgPrefix) {
			n++
		}
	}
	return n
}

func TestLoggerNotSet(t *testing.T) {
	_, err := NewContainer()
	if err != ErrLoggerNotSet {
		t.Fatalf("expected ErrLoggerNotSet, got %v", err)
	}
}

func TestMockLoggerReceivesScanSummary(t *testing.T) {
	ml := new(MockLogger)
	ml.On("Debug", mock.Anything, mock.Anything).Return()
	ml.On("Info", "Component scan completed", mock.Anything).Return()

	catalog := NewCatalog("mock")
	catalog.Provide((*plainBean)(nil))

	c, err := NewContainer(WithLogger(ml), WithCatalog(catalog), WithoutDefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Scan(t.Context(), fixturePkg); err != nil {
		t.Fatal(err)
	}

	ml.AssertCalled(t, "Info", "Component scan completed", mock.Anything)
	ml.AssertNotCalled(t, "Warn", mock.Anything, mock.Anything)
}
