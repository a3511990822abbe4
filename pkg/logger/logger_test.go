package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
)

// mockLogLevel is a valid zapcore.Level value for testing.
const mockLogLevel int8 = 0 // zapcore.InfoLevel

func TestGetReturnsLoggerInstance(t *testing.T) {
	logger := Get(mockLogLevel)
	if logger == nil {
		t.Fatal("Get should return a non-nil logger")
	}
}

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := GetWithWriter(-1, os.Stdout)
	if logger1 != logger2 {
		t.Error("only the first initialization should take effect")
	}
}

func TestGetReturnsNoopLoggerIfGlobalLoggerNil(t *testing.T) {
	Get(mockLogLevel)
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	logger := Get(mockLogLevel)
	if logger != &defaultNoopLogger {
		t.Errorf("Get should fall back to the noop logger, got %T", logger)
	}
}

func TestWithLoggerAddsLoggerToContext(t *testing.T) {
	logger := Get(mockLogLevel)
	newCtx := WithLogger(context.Background(), logger)

	if got := newCtx.Value(loggerContextKey{}); got != logger {
		t.Error("WithLogger should store the provided logger in context")
	}
}

func TestWithLoggerReturnsSameContextIfLoggerAlreadySet(t *testing.T) {
	logger := Get(mockLogLevel)
	ctxWithLogger := context.WithValue(context.Background(), loggerContextKey{}, logger)

	if WithLogger(ctxWithLogger, logger) != ctxWithLogger {
		t.Error("WithLogger should return the same context if logger is already set and matches")
	}
}

func TestWithLoggerReplacesLoggerIfDifferent(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := logr.Discard()
	ctxWithLogger := context.WithValue(context.Background(), loggerContextKey{}, logger1)

	resultCtx := WithLogger(ctxWithLogger, &logger2)
	if got := resultCtx.Value(loggerContextKey{}); got != &logger2 {
		t.Error("WithLogger should replace logger in context if different")
	}
}

func TestFromContextReturnsLoggerFromContext(t *testing.T) {
	logger := logr.Discard()
	ctx := WithLogger(context.Background(), &logger)

	if FromContext(ctx) != &logger {
		t.Error("FromContext should return the logger stored in context")
	}
}

func TestFromContextReturnsGlobalLoggerIfNoLoggerInContext(t *testing.T) {
	globalLogger := Get(mockLogLevel)

	if FromContext(context.Background()) != globalLogger {
		t.Error("FromContext should return the global logger if none in context")
	}
}

func TestFromContextReturnsNoopLoggerIfNoGlobalOrContextLogger(t *testing.T) {
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	if FromContext(context.Background()) != &defaultNoopLogger {
		t.Error("FromContext should return defaultNoopLogger if no logger is set")
	}
}

func TestSyncDoesNotPanicWhenGlobalZapLoggerIsNil(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Sync should not panic when globalZapLogger is nil, but got panic: %v", r)
		}
	}()
	Sync()
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: syscall.ENOTTY, want: true},
		{err: &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}, want: true},
		{err: fmt.Errorf("sync: %w", syscall.EBADF), want: true},
		{err: errors.New("sync /dev/stderr: The handle is invalid."), want: true},
		{err: errors.New("disk full"), want: false},
	}
	for _, tt := range tests {
		if got := isIgnorableSyncError(tt.err); got != tt.want {
			t.Errorf("isIgnorableSyncError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGetNoopLoggerReturnsDefaultNoopLogger(t *testing.T) {
	if GetNoopLogger() != &defaultNoopLogger {
		t.Error("GetNoopLogger should return defaultNoopLogger")
	}
}

func TestWithValuesReturnsNewLoggerWithValues(t *testing.T) {
	logger := Get(mockLogLevel)

	newLogger := WithValues(logger, NamespaceKey, "ns-1")
	if newLogger == nil {
		t.Fatal("WithValues should return a non-nil logger")
	}
	if newLogger == logger {
		t.Error("WithValues should return a new logger instance, not the original")
	}
}
