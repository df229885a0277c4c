// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config resolves the builder configuration file. Key material is
// validated here: a malformed filler key is a startup failure, never a
// runtime one.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zsluedem/rbuilder/building/builders"
)

const envPrefix = "rbuilder"

type Config struct {
	// Name correlates this strategy's log lines and metrics.
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`

	// RootHashWorkers sizes the pool shared by concurrent builds.
	RootHashWorkers int `mapstructure:"root_hash_workers"`

	Preconf builders.PreconfBuilderConfig `mapstructure:"preconf"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file %q not found: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "preconf-builder")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("root_hash_workers", 4)

	v.SetDefault("preconf.coinbase_payment", false)
}

func (c *Config) Validate() error {
	if c.RootHashWorkers < 1 {
		return fmt.Errorf("root_hash_workers must be positive, got %d", c.RootHashWorkers)
	}
	// Fail fast on unusable key material.
	if _, err := c.Preconf.FillerSigner(); err != nil {
		return fmt.Errorf("preconf.filler_tx_private_key: %w", err)
	}
	return nil
}
