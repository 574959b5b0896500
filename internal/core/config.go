package core

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDefaultDeadline        = "CALLSPY_DEFAULT_DEADLINE"
	EnvWaitForTrailingFailure = "CALLSPY_WAIT_FOR_TRAILING_FAILURE"
	EnvTrailingWindow         = "CALLSPY_TRAILING_WINDOW"
)

// DefaultTrailingWindow bounds the excess-call watch when a confirmation has
// no deadline.
const DefaultTrailingWindow = 100 * time.Millisecond

// Clock abstracts the time source used to timestamp calls.
type Clock interface {
	Now() time.Time
}

// Timer abstracts time-based operations for testability.
type Timer interface {
	After(d time.Duration) <-chan time.Time
}

// Config holds the settings shared by ledgers and verifiers.
type Config struct {
	// DefaultDeadline bounds confirmations that do not set their own. Zero
	// means no deadline.
	DefaultDeadline time.Duration
	// WaitForTrailingFailure enables the excess-call watch after a
	// confirmation is matched. Off by default: it holds the test until the
	// deadline or TrailingWindow passes.
	WaitForTrailingFailure bool
	// TrailingWindow bounds the excess-call watch when there is no deadline.
	TrailingWindow time.Duration
	Clock          Clock
	Timer          Timer
	Logger         *slog.Logger
}

// Option configures a Config.
type Option func(*Config)

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		TrailingWindow: DefaultTrailingWindow,
		Clock:          realClock{},
		Timer:          realTimer{},
		Logger:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// ConfigFromEnv returns options derived from the CALLSPY_* environment
// variables. Unset variables contribute nothing.
func ConfigFromEnv() ([]Option, error) {
	var opts []Option

	if raw, ok := os.LookupEnv(EnvDefaultDeadline); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvDefaultDeadline, err)
		}

		opts = append(opts, WithDefaultDeadline(d))
	}

	if raw, ok := os.LookupEnv(EnvWaitForTrailingFailure); ok {
		wait, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvWaitForTrailingFailure, err)
		}

		opts = append(opts, func(c *Config) { c.WaitForTrailingFailure = wait })
	}

	if raw, ok := os.LookupEnv(EnvTrailingWindow); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTrailingWindow, err)
		}

		opts = append(opts, WithTrailingWindow(d))
	}

	return opts, nil
}

// WaitForTrailingFailure enables the excess-call watch for confirmations.
func WaitForTrailingFailure() Option {
	return func(c *Config) { c.WaitForTrailingFailure = true }
}

// WithClock sets the clock used to timestamp calls.
func WithClock(clock Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithDefaultDeadline sets the deadline used by confirmations without one.
func WithDefaultDeadline(d time.Duration) Option {
	return func(c *Config) { c.DefaultDeadline = d }
}

// WithLogger sets the structured logger. Nil restores the discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}

		c.Logger = logger
	}
}

// WithTimer sets the timer used for confirmation deadlines.
func WithTimer(timer Timer) Option {
	return func(c *Config) { c.Timer = timer }
}

// WithTrailingWindow sets the excess-call watch bound for confirmations
// without a deadline.
func WithTrailingWindow(d time.Duration) Option {
	return func(c *Config) { c.TrailingWindow = d }
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
