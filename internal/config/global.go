package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/patentwatch/internal/serial"
	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "patentwatch"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override file settings.
const (
	EnvDataDir        = "PW_DATA_DIR"
	EnvLogLevel       = "PW_LOG_LEVEL"
	EnvBaselineSerial = "PW_BASELINE_SERIAL"
	EnvListingURL     = "PW_JOURNAL_URL"
	EnvConfigPath     = "PW_CONFIG"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/patentwatch/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path falls back to PW_CONFIG and then the
// global config path. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	explicit := path != ""
	if !explicit {
		path = GlobalConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// No global config; defaults apply.
		default:
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.DataDir = ExpandTilde(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvBaselineSerial); v != "" {
		c.Journal.BaselineSerial = v
	}
	if v := os.Getenv(EnvListingURL); v != "" {
		c.Journal.ListingURL = v
	}
}

// Validate checks settings that would otherwise fail deep inside a stage.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if len(c.SoftwarePrefixes) == 0 {
		return fmt.Errorf("software_prefixes must not be empty")
	}
	if c.Journal.BaselineSerial != "" {
		if _, ok := serial.Parse(c.Journal.BaselineSerial); !ok {
			return fmt.Errorf("baseline_serial %q is not in week/year form", c.Journal.BaselineSerial)
		}
	}
	if c.Journal.RequestsPerSec <= 0 || c.Search.RequestsPerSec <= 0 {
		return fmt.Errorf("requests_per_sec must be positive")
	}
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
