package resource

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	DefaultMemoryBudget    = 256 * 1024
	DefaultMaxResourceSize = 0x400000
)

type Option func(*options) error

type options struct {
	dir             string
	budget          int
	maxResourceSize int
	version         Version
	log             *slog.Logger
	metrics         *Metrics
}

func defaultOptions() options {
	return options{
		dir:             ".",
		budget:          DefaultMemoryBudget,
		maxResourceSize: DefaultMaxResourceSize,
		version:         Autodetect,
		log:             slog.Default(),
	}
}

// WithDirectory sets the game directory inside the filesystem handed to
// New.
func WithDirectory(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("directory must not be empty")
		}
		o.dir = dir
		return nil
	}
}

// WithMemoryBudget caps the bytes held by locked and enqueued resources.
func WithMemoryBudget(bytes int) Option {
	return func(o *options) error {
		if bytes <= 0 {
			return fmt.Errorf("memory budget must be positive, got %d", bytes)
		}
		o.budget = bytes
		return nil
	}
}

// WithVersion skips version autodetection.
func WithVersion(v Version) Option {
	return func(o *options) error {
		if v > SCI32 {
			return fmt.Errorf("unknown version %v", v)
		}
		o.version = v
		return nil
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) error {
		if log == nil {
			return errors.New("logger must not be nil")
		}
		o.log = log
		return nil
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithMaxResourceSize sets the sanity ceiling for declared resource sizes.
func WithMaxResourceSize(bytes int) Option {
	return func(o *options) error {
		if bytes <= 0 {
			return fmt.Errorf("max resource size must be positive, got %d", bytes)
		}
		o.maxResourceSize = bytes
		return nil
	}
}
