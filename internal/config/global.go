// ABOUTME: Global configuration management for clenv
// ABOUTME: Handles loading and saving ~/.clenv/config.json
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GlobalConfig represents the global configuration file structure
type GlobalConfig struct {
	Preferences Preferences `json:"preferences"`
}

// Preferences represents user preferences
type Preferences struct {
	// DefaultProfileName is suggested when naming the untitled profile
	DefaultProfileName string `json:"defaultProfileName,omitempty"`
	DisableEvents      bool   `json:"disableEvents,omitempty"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *GlobalConfig {
	return &GlobalConfig{
		Preferences: Preferences{},
	}
}

// Load reads the global config file under homeDir, creating it with defaults
// if it doesn't exist
func Load(homeDir string) (*GlobalConfig, error) {
	cfgPath := GlobalConfigPath(homeDir)

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(homeDir, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}

	var cfg GlobalConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	return &cfg, nil
}

// Save writes the global config to disk
func Save(homeDir string, cfg *GlobalConfig) error {
	cfgPath := GlobalConfigPath(homeDir)

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cfgPath, append(data, '\n'), 0644)
}
