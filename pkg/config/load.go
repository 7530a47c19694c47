package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "TOKENFACTORY_CONFIG"
	EnvTokenURL   = "TOKEN_GENERATION_URL"
	DefaultPath   = "tokenfactory.toml"
)

// PathFromEnv returns the settings path, honoring TOKENFACTORY_CONFIG.
func PathFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvConfigPath)); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads and validates a settings file. TOML unless the extension is .yaml/.yml.
func Load(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := decode(path, b, &s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadOptional is Load, but a missing file yields zero Settings.
func LoadOptional(path string) (Settings, error) {
	s, err := Load(path)
	if err != nil && os.IsNotExist(err) {
		return Settings{}, nil
	}
	return s, err
}

func decode(path string, b []byte, s *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, s)
	default:
		return toml.Unmarshal(b, s)
	}
}
