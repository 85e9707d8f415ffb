package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"flowradar/pkg/errors"
)

// Tracker implements errors.Tracker on Sentry
type Tracker struct {
	hub *sentry.Hub
}

// New initializes the Sentry SDK and returns a tracker
func New(dsn, environment string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, err
	}
	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// CaptureError sends an error with tags
func (t *Tracker) CaptureError(_ context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
	return nil
}

// CaptureMessage sends a message at the given level
func (t *Tracker) CaptureMessage(_ context.Context, message string, level errors.Level, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetLevel(convertLevel(level))
	})
	hub.CaptureMessage(message)
	return nil
}

// Flush waits for pending events to drain
func (t *Tracker) Flush(context.Context) error {
	sentry.Flush(2 * time.Second)
	return nil
}

func convertLevel(level errors.Level) sentry.Level {
	switch level {
	case errors.LevelDebug:
		return sentry.LevelDebug
	case errors.LevelWarning:
		return sentry.LevelWarning
	case errors.LevelError:
		return sentry.LevelError
	case errors.LevelFatal:
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}
