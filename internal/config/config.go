// Package config loads predictor settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the full predictor configuration.
type Config struct {
	Model  ModelConfig
	Server ServerConfig
	Log    LogConfig

	// File is the config file that was read, or "" when running on
	// defaults and environment only.
	File string
}

// ModelConfig locates the trained artifacts.
type ModelConfig struct {
	Path        string
	EncoderPath string

	// CheckInterval is how often the artifact files are re-hashed to detect
	// drift from the loaded model; 0 disables the check.
	CheckInterval time.Duration
}

// ServerConfig controls the listeners and HTTP middleware.
type ServerConfig struct {
	Port         int
	GRPCPort     int // 0 disables the gRPC health listener
	CORSOrigins  []string
	RateLimitRPS int // 0 disables rate limiting
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

// Load reads configuration. file may be empty, in which case predictor.yaml
// is looked up in ./configs and the working directory; a missing file is
// not an error. Environment variables always win over the file.
func Load(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("predictor")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The artifact and port variables keep their historical names.
	_ = v.BindEnv("model.path", "MODEL_PATH")
	_ = v.BindEnv("model.encoder_path", "ENCODER_PATH")
	_ = v.BindEnv("server.port", "PORT")

	v.SetDefault("model.path", "model/encryption_model.json")
	v.SetDefault("model.encoder_path", "model/label_encoders.json")
	v.SetDefault("model.check_interval", time.Minute)
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		cfg.File = v.ConfigFileUsed()
	}

	cfg.Model = ModelConfig{
		Path:          v.GetString("model.path"),
		EncoderPath:   v.GetString("model.encoder_path"),
		CheckInterval: v.GetDuration("model.check_interval"),
	}
	cfg.Server = ServerConfig{
		Port:         v.GetInt("server.port"),
		GRPCPort:     v.GetInt("server.grpc_port"),
		CORSOrigins:  v.GetStringSlice("server.cors_origins"),
		RateLimitRPS: v.GetInt("server.rate_limit_rps"),
	}
	cfg.Log = LogConfig{
		Level:       v.GetString("log.level"),
		Development: v.GetBool("log.development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.New("config: model.path is empty")
	}
	if c.Model.EncoderPath == "" {
		return errors.New("config: model.encoder_path is empty")
	}
	if c.Model.CheckInterval < 0 {
		return fmt.Errorf("config: model.check_interval must not be negative, got %s", c.Model.CheckInterval)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d out of range", c.Server.GRPCPort)
	}
	if c.Server.GRPCPort != 0 && c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("config: server.grpc_port and server.port are both %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must not be negative, got %d", c.Server.RateLimitRPS)
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses Level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return lvl, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}
