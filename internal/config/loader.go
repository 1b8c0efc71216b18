package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvOracleURL overrides oracle.url when set.
const EnvOracleURL = "ROULETTE_ORACLE_URL"

// LoadRoulette loads the roulette configuration.
// Search order: customPath -> ~/.roulette/configs/roulette.yaml -> ./configs/roulette.yaml -> embedded default
// Values missing from a file keep their defaults. Environment overrides are
// applied last and the result is validated.
func LoadRoulette(customPath string) (RouletteConfig, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (RouletteConfig, error) {
	cfg := DefaultRouletteConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("roulette.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultRouletteConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "roulette.yaml")); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultRouletteConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultRouletteYAML, &cfg); err != nil {
		return DefaultRouletteConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".roulette", "configs", filename)
}

// LoadEnv loads a dotenv file into the process environment.
// A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies environment overrides into cfg.
func ApplyEnv(cfg *RouletteConfig) {
	if url := os.Getenv(EnvOracleURL); url != "" {
		cfg.Oracle.URL = url
	}
}
