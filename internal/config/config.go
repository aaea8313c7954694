package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const DefaultConfigPath = "config.json"

type Config struct {
	Port           string   `json:"port"`
	ModelDir       string   `json:"model_dir"`
	OnnxRuntimeLib string   `json:"onnxruntime_lib"`
	IntraOpThreads int      `json:"intra_op_threads"`
	InterOpThreads int      `json:"inter_op_threads"`
	MaxUploadMB    int      `json:"max_upload_mb"`
	PreloadModels  []string `json:"preload_models"`
	ReleaseMode    bool     `json:"release_mode"`
	LogLevel       string   `json:"log_level"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Port:        "8080",
		ModelDir:    "models",
		MaxUploadMB: 10,
		LogLevel:    "info",
	}
}

// Load starts from the defaults, applies the JSON file at path when it
// exists, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.ModelDir = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.OnnxRuntimeLib = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PRELOAD_MODELS"); v != "" {
		c.PreloadModels = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"INTRA_OP_THREADS", &c.IntraOpThreads},
		{"INTER_OP_THREADS", &c.InterOpThreads},
		{"MAX_UPLOAD_MB", &c.MaxUploadMB},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("RELEASE_MODE"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("RELEASE_MODE must be a boolean: %w", err)
		}
		c.ReleaseMode = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) Validate() error {
	port, err := cast.ToIntE(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.ModelDir == "" {
		return errors.New("model_dir is empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return errors.New("thread counts must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// MaxUploadBytes is the multipart size limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Level returns the parsed log level. Validate has already checked it.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
