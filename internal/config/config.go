package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root         string `yaml:"root"`
		Declarations string `yaml:"declarations"` // target declaration file, relative to root
	} `yaml:"project"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
	Evaluator struct {
		Workers   int `yaml:"workers"`
		CacheSize int `yaml:"cache_size"` // memoized evaluations kept in memory
	} `yaml:"evaluator"`
	Scan struct {
		Ignored     []string `yaml:"ignored"`
		PrivateDirs []string `yaml:"private_dirs"`
	} `yaml:"scan"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Project.Declarations = "targets.yaml"
	cfg.Storage.DB = "srcset.db"
	cfg.Evaluator.Workers = 4
	cfg.Evaluator.CacheSize = 256
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads path on top of Default. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("SRCSET_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if level := os.Getenv("SRCSET_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if workers := os.Getenv("SRCSET_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("SRCSET_WORKERS: %w", err)
		}
		cfg.Evaluator.Workers = n
	}

	if cfg.Evaluator.Workers < 1 {
		cfg.Evaluator.Workers = 1
	}
	if cfg.Evaluator.CacheSize < 1 {
		cfg.Evaluator.CacheSize = 1
	}
	return cfg, nil
}
