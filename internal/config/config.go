// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the settings of the invoke and invoked commands.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/luxfi/invoke"
)

// EnvPrefix prefixes every environment override, e.g. INVOKE_TRANSPORT.
const EnvPrefix = "INVOKE"

type Config struct {
	Transport        string        `mapstructure:"transport"`
	Address          string        `mapstructure:"address"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint"`
	MaxConcurrency   int64         `mapstructure:"max_concurrency"`
	BatchConcurrency int64         `mapstructure:"batch_concurrency"`
	Timeout          time.Duration `mapstructure:"timeout"`
	LogLevel         string        `mapstructure:"log_level"`
}

func Default() Config {
	return Config{
		Transport:      invoke.DefaultTransport,
		Address:        "127.0.0.1:9000",
		MaxConcurrency: invoke.DefaultMaxConcurrency,
		Timeout:        30 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads the optional .env file envFile, then the optional config file
// path, then INVOKE_* environment variables. Later sources win.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load env file %s", envFile)
		}
	}

	v := viper.New()
	def := Default()
	v.SetDefault("transport", def.Transport)
	v.SetDefault("address", def.Address)
	v.SetDefault("region", def.Region)
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("max_concurrency", def.MaxConcurrency)
	v.SetDefault("batch_concurrency", def.BatchConcurrency)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return c, c.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !invoke.HasTransport(c.Transport) {
		return errors.Errorf("unknown transport %q, available: %s",
			c.Transport, strings.Join(invoke.AvailableTransports(), ", "))
	}
	if c.Transport != invoke.TransportLambda && c.Address == "" {
		return errors.New("address is required")
	}
	if c.MaxConcurrency <= 0 {
		return errors.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.BatchConcurrency < 0 {
		return errors.Errorf("batch_concurrency must not be negative, got %d", c.BatchConcurrency)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, errors.Wrapf(err, "log_level")
	}
	return lvl, nil
}

// DialOptions turns the client settings into invoke dial options.
func (c Config) DialOptions() []invoke.DialOption {
	return []invoke.DialOption{
		invoke.WithTransport(c.Transport),
		invoke.WithMaxConcurrency(c.MaxConcurrency),
		invoke.WithTimeout(c.Timeout),
		invoke.WithRegion(c.Region),
		invoke.WithEndpoint(c.Endpoint),
	}
}

// Logger builds a production zap logger at LogLevel.
func (c Config) Logger() (*zap.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
