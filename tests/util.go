package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/Shin40411/Lms-client/core"
)

// Toasts records notifications.
type Toasts struct {
	mu     sync.Mutex
	toasts []core.Toast
}

func (t *Toasts) Notify(toast core.Toast) {
	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	t.mu.Unlock()
}

// All returns the recorded notifications, in order. Nil if none.
func (t *Toasts) All() []core.Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.toasts == nil {
		return nil
	}
	return append([]core.Toast{}, t.toasts...)
}

func (t *Toasts) Reset() {
	t.mu.Lock()
	t.toasts = nil
	t.mu.Unlock()
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// RecordingLogger keeps the messages logged at warn level and above.
type RecordingLogger struct {
	NopLogger
	mu       sync.Mutex
	messages []string
}

func (l *RecordingLogger) record(msg string) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

func (l *RecordingLogger) Warn(msg string, _ ...interface{})  { l.record(msg) }
func (l *RecordingLogger) Error(msg string, _ ...interface{}) { l.record(msg) }

func (l *RecordingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.messages...)
}

// EnvOrSkip returns the value of the environment variable key, skipping the test when unset.
func EnvOrSkip(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}
