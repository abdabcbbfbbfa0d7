package hotreload

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the watch-session settings.
type Config struct {
	// Root is the directory to watch.
	Root string `yaml:"root" validate:"required"`
	// Listen is the address of the patch websocket endpoint.
	Listen string `yaml:"listen" validate:"required,hostname_port"`
	// Macros are the accepted template macro spellings.
	Macros []string `yaml:"macros" validate:"min=1,dive,required"`
	// Exclude lists extra directory or file base names to skip.
	Exclude []string `yaml:"exclude"`
	// DebounceMS is the event-coalescing window in milliseconds.
	DebounceMS int `yaml:"debounce_ms" validate:"min=10,max=5000"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig(root string) Config {
	return Config{
		Root:       root,
		Listen:     "127.0.0.1:8999",
		Macros:     DefaultMacros,
		DebounceMS: 100,
	}
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig(".")
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config against its struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Debounce returns the coalescing window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// excludeFunc builds the path predicate for scanning and watching.
func (c Config) excludeFunc() func(string) bool {
	extra := make(map[string]bool, len(c.Exclude))
	for _, name := range c.Exclude {
		extra[name] = true
	}
	return func(path string) bool {
		base := filepath.Base(path)
		return defaultExcluded[base] || extra[base]
	}
}
