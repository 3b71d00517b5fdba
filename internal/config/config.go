// Package config loads and persists user configuration. Settings live
// in config.yaml; credentials and the session token in account.json,
// kept separate so the config file is safe to share.
package config

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"spotify-dl-go/internal/api"
)

type Config struct {
	Quality api.Quality `yaml:"quality"`
	Output  string      `yaml:"output"`
	Format  string      `yaml:"format"`
	Threads int         `yaml:"threads"`
	Proxy   string      `yaml:"proxy"`
}

type Account struct {
	Username    string `json:"username"`
	Password    string `json:"password"` // In real app, consider encrypting
	AccessToken string `json:"access_token"`
}

func GetConfigPath() string {
	// Simple current directory for now, or user home
	return "config.yaml"
}

func GetAccountPath() string {
	return "account.json"
}

func LoadConfig() (*Config, error) {
	path := GetConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{Quality: api.QualityHigh, Output: ".", Threads: 3}, nil // Defaults
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Quality == "" {
		cfg.Quality = api.QualityHigh
	}
	if cfg.Output == "" {
		cfg.Output = "."
	}
	if cfg.Threads == 0 {
		cfg.Threads = 3
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(GetConfigPath(), data, 0644)
}

func LoadAccount() (*Account, error) {
	path := GetAccountPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Account{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func SaveAccount(acc *Account) error {
	data, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetAccountPath(), data, 0600)
}
