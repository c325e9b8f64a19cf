// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "das.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultProbeSize = 1024
	DefaultStorePath = ".das"
)

type Config struct {
	ConfigCellTypeID string `yaml:"configCellTypeId"  envconfig:"CONFIG_CELL_TYPE_ID"`
	StorePath        string `yaml:"storePath"                                         split_words:"true"`
	MetricsBindAddr  string `yaml:"metricsBindAddr"                                   split_words:"true"`
	MetricsPort      uint   `yaml:"metricsPort"                                       split_words:"true"`
	ProbeSize        int    `yaml:"probeSize"                                         split_words:"true"`
	MaxWitnesses     int    `yaml:"maxWitnesses"                                      split_words:"true"`
	Tracing          bool   `yaml:"tracing"`
	TracingStdout    bool   `yaml:"tracingStdout"                                     split_words:"true"`
}

var globalConfig = &Config{
	StorePath:       DefaultStorePath,
	MetricsBindAddr: "127.0.0.1",
	MetricsPort:     0,
	ProbeSize:       DefaultProbeSize,
	MaxWitnesses:    0,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.das/das.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".das", "das.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/das/das.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/das/das.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("das", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if c.ProbeSize <= 0 {
		return fmt.Errorf("invalid probeSize: %d (must be positive)", c.ProbeSize)
	}
	if c.MaxWitnesses < 0 {
		return fmt.Errorf(
			"invalid maxWitnesses: %d (must not be negative)",
			c.MaxWitnesses,
		)
	}
	if c.ConfigCellTypeID != "" {
		if _, err := c.ConfigCellTypeIDBytes(); err != nil {
			return err
		}
	}
	return nil
}

// ConfigCellTypeIDBytes decodes the hex config cell type ID, with or
// without a 0x prefix
func (c *Config) ConfigCellTypeIDBytes() ([32]byte, error) {
	var ret [32]byte
	if c.ConfigCellTypeID == "" {
		return ret, errors.New("configCellTypeId is not set")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(c.ConfigCellTypeID, "0x"))
	if err != nil {
		return ret, fmt.Errorf("invalid configCellTypeId: %w", err)
	}
	if len(raw) != len(ret) {
		return ret, fmt.Errorf(
			"invalid configCellTypeId: %d bytes, expected %d",
			len(raw),
			len(ret),
		)
	}
	copy(ret[:], raw)
	return ret, nil
}

func GetConfig() *Config {
	return globalConfig
}
