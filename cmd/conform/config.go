package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all conform server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath    string `json:"db_path"`
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	ModelPath string `json:"model_path"`
	TablePath string `json:"table_path"`
}

func defaultConfig() Config {
	return Config{
		DBPath:   "file:" + filepath.Join(conformDir(), "conform.db"),
		LogLevel: "info",
	}
}

func conformDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conform"
	}
	return filepath.Join(home, ".conform")
}

func settingsPath() string {
	return filepath.Join(conformDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("CONFORM_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CONFORM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CONFORM_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CONFORM_MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv("CONFORM_TABLE_PATH"); v != "" {
		cfg.TablePath = v
	}

	return cfg
}
