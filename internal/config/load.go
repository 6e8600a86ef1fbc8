package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in standard locations.
const FileName = "boulder.yaml"

// Load loads configuration with priority: defaults < file < flags.
// An empty path searches the standard locations.
func Load(path string, o Overrides) (*Config, error) {
	cfg := Default()

	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg, o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be fixed later.
func (c *Config) Validate() error {
	if err := c.Layout.Request().Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	switch c.Container.Backend {
	case BackendDocument, BackendDryRun:
	default:
		return fmt.Errorf("container: unknown backend %q", c.Container.Backend)
	}
	if c.Container.Backend == BackendDocument && c.Container.Path == "" {
		return fmt.Errorf("container: path is required for the %s backend", BackendDocument)
	}
	if c.Material.Slots < 0 {
		return fmt.Errorf("material: slots must not be negative, got %d", c.Material.Slots)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
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
		return filepath.Join(home, "Library", "Application Support", "Boulderkit")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Boulderkit")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "boulderkit")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "boulderkit")
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
