package sci

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/go-units"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/32bitkid/sciresource/resource"
)

// Config describes how to open a game.
type Config struct {
	// Dir is the directory holding RESOURCE.MAP.
	Dir string `json:"dir"`
	// MemoryBudget is a size such as "256KiB" or "4m".
	MemoryBudget string `json:"memory_budget"`
	// Version is "autodetect" or a name such as "sci0" or "sci1.1".
	Version  string `json:"version"`
	LogLevel string `json:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		MemoryBudget: "256KiB",
		Version:      resource.Autodetect.String(),
		LogLevel:     "info",
	}
}

func (c Config) Validate() error {
	var err error
	if c.Dir == "" {
		err = multierr.Append(err, fmt.Errorf("dir: must not be empty"))
	}
	if _, e := c.Budget(); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := c.ParsedVersion(); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := c.Level(); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}

// Budget is the memory budget in bytes.
func (c Config) Budget() (int, error) {
	n, err := units.RAMInBytes(c.MemoryBudget)
	if err != nil {
		return 0, fmt.Errorf("memory_budget: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("memory_budget: must be positive, got %q", c.MemoryBudget)
	}
	return int(n), nil
}

func (c Config) ParsedVersion() (resource.Version, error) {
	v, err := resource.ParseVersion(c.Version)
	if err != nil {
		return resource.Autodetect, fmt.Errorf("version: %w", err)
	}
	return v, nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// LoadConfig reads a JSON configuration. Fields missing from the file keep
// their defaults.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	c := DefaultConfig()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, c.Validate()
}
