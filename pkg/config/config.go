// Package config loads tutorkit configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RuntimeConfig configures the local model-serving daemon and the models
// the platform depends on.
type RuntimeConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`        // daemon base URL
	Binary         string        `mapstructure:"binary"`          // daemon binary to launch when not already running
	LLMModel       string        `mapstructure:"llm_model"`       // generation model
	EmbeddingModel string        `mapstructure:"embedding_model"` // embedding model
	StartupTimeout time.Duration `mapstructure:"startup_timeout"` // readiness deadline
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AuthConfig configures token issuing.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Config is the top-level tutorkit configuration.
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Server  ServerConfig  `mapstructure:"server"`
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// RequiredModels returns the models that must be present locally before the
// API server starts serving quiz traffic.
func (cfg *Config) RequiredModels() []string {
	return []string{cfg.Runtime.EmbeddingModel, cfg.Runtime.LLMModel}
}

// DatabasePath returns the path of the SQLite database file.
func (cfg *Config) DatabasePath() string {
	return filepath.Join(cfg.DataDir, "tutorkit.db")
}

// LibraryDir returns the directory holding uploaded book files.
func (cfg *Config) LibraryDir() string {
	return filepath.Join(cfg.DataDir, "library")
}

// RuntimeLogPath returns the path of the serving daemon's log file.
func (cfg *Config) RuntimeLogPath() string {
	return filepath.Join(cfg.DataDir, "runtime.log")
}

// EnsureDirs creates the data directories if they do not exist.
func (cfg *Config) EnsureDirs() error {
	for _, dir := range []string{cfg.DataDir, cfg.LibraryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("server.addr", ":7860")
	v.SetDefault("runtime.endpoint", "http://localhost:11434")
	v.SetDefault("runtime.binary", "ollama")
	v.SetDefault("runtime.llm_model", "mistral:7b")
	v.SetDefault("runtime.embedding_model", "nomic-embed-text")
	v.SetDefault("runtime.startup_timeout", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the TUTORKIT_ prefix with
// underscores for nesting, e.g. TUTORKIT_SERVER_ADDR.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("tutorkit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("tutorkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tutorkit")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
			// No config file is fine, defaults and env cover everything.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}
