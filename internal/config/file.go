package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML config file. Environment variables win
// over file values, which win over built-in defaults.
type FileConfig struct {
	DataDir     string `yaml:"data_dir"`
	DBURL       string `yaml:"db_url"`
	ModelDir    string `yaml:"model_dir"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	SearchLimit int    `yaml:"search_limit"`
	BatchSize   int    `yaml:"batch_size"`

	Embedding struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"embedding"`
}

// LoadFile reads a YAML config file. A missing file yields a zero
// FileConfig and no error.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the set file values into AppConfig options, skipping
// anything left blank.
func (f FileConfig) Options() []AppConfigOption {
	opts := []AppConfigOption{}
	if f.DataDir != "" {
		opts = append(opts, WithDataDir(f.DataDir))
	}
	if f.DBURL != "" {
		opts = append(opts, WithDBURL(f.DBURL))
	}
	if f.ModelDir != "" {
		opts = append(opts, WithModelDir(f.ModelDir))
	}
	if f.LogLevel != "" {
		opts = append(opts, WithLogLevel(f.LogLevel))
	}
	if f.LogFormat != "" {
		opts = append(opts, WithLogFormat(ParseLogFormat(f.LogFormat)))
	}
	if f.SearchLimit > 0 {
		opts = append(opts, WithSearchLimit(f.SearchLimit))
	}
	if f.BatchSize > 0 {
		opts = append(opts, WithBatchSize(f.BatchSize))
	}
	if f.Embedding.APIKey != "" {
		opts = append(opts, WithEmbeddingEndpoint(NewEndpoint(
			WithBaseURL(f.Embedding.BaseURL),
			WithModel(f.Embedding.Model),
			WithAPIKey(f.Embedding.APIKey),
		)))
	}
	return opts
}

// Load builds the effective AppConfig: defaults, then the YAML file at
// path (if any), then DAYBOOK_ environment variables on top.
func Load(path string) (AppConfig, error) {
	fileCfg, err := LoadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("load environment config: %w", err)
	}
	cfg := NewAppConfig(fileCfg.Options()...)
	return mergeEnv(cfg, envCfg), nil
}

// mergeEnv overlays set environment values onto cfg.
func mergeEnv(cfg AppConfig, env EnvConfig) AppConfig {
	opts := []AppConfigOption{}
	if env.DataDir != "" {
		opts = append(opts, WithDataDir(env.DataDir))
	}
	if env.DBURL != "" {
		opts = append(opts, WithDBURL(env.DBURL))
	}
	if env.ModelDir != "" {
		opts = append(opts, WithModelDir(env.ModelDir))
	}
	if env.LogLevel != "" {
		opts = append(opts, WithLogLevel(env.LogLevel))
	}
	if env.LogFormat != "" {
		opts = append(opts, WithLogFormat(ParseLogFormat(env.LogFormat)))
	}
	if env.SearchLimit > 0 {
		opts = append(opts, WithSearchLimit(env.SearchLimit))
	}
	if env.BatchSize > 0 {
		opts = append(opts, WithBatchSize(env.BatchSize))
	}
	if env.Embedding.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(env.Embedding.ToEndpoint()))
	}
	return cfg.Apply(opts...)
}
