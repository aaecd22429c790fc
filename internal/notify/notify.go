package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrInvalidLevel = errors.New("invalid notification level")

// Level distinguishes success messages from failures.
type Level int

const (
	Info Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "info"
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*l = Info
	case "error":
		*l = Error
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLevel, string(text))
	}
	return nil
}

// Notification is a short user-visible message such as a toast.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Sink receives notifications. Notify must not block on the user.
type Sink interface {
	Notify(n Notification)
}

// Func adapts a function to a Sink.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Sink = Func(func(Notification) {})

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == Error {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, n.Title, "message", n.Message)
}

// Recorder keeps the most recent notifications so a UI can poll for them.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

// NewRecorder keeps at most limit notifications; limit <= 0 keeps all.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, n)
	if r.limit > 0 && len(r.items) > r.limit {
		r.items = append([]Notification(nil), r.items[len(r.items)-r.limit:]...)
	}
}

// All returns the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Multi fans a notification out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return Func(func(n Notification) {
		for _, s := range sinks {
			s.Notify(n)
		}
	})
}
