package document

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Limits restricts what may be registered. Zero values mean unrestricted.
type Limits struct {
	MaxSizeBytes  int64
	AcceptedTypes []string
}

type options struct {
	limits Limits
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithLimits enforces size and type limits on Register.
func WithLimits(limits Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides how document ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithLogger sets the logger for protocol violations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.DiscardHandler),
	}
}
