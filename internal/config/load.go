package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// normalize clamps values the octree would clamp anyway, so the saved and
// logged config matches what runs.
func (c *Config) normalize() {
	c.Octree.Levels = max(c.Octree.Levels, 1)
}

// Validate checks values the octree cannot work with.
func (c *Config) Validate() error {
	if c.Octree.Size <= 0 {
		return fmt.Errorf("octree.size must be positive, got %g", c.Octree.Size)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("workers.count must not be negative, got %d", c.Workers.Count)
	}
	if c.Workers.QueueSize < 1 {
		return fmt.Errorf("workers.queue_size must be at least 1, got %d", c.Workers.QueueSize)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./octree.yaml",
		filepath.Join(ConfigDir(), "octree.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardOctree")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardOctree")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-octree")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-octree")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
