// Package config loads pactopt's configuration: a layered file + environment
// + default setup built on Viper, in the style of the wider retrieval pack's
// cmd/node config loader.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the pactopt server/CLI.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

// ServerConfig holds network server configuration for a long-running
// pactopt daemon; the CLI's one-shot compile/demo commands ignore it.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"maxConnections"`
}

// DatabaseConfig holds catalog/statistics source settings. It is loaded,
// validated and printed with the rest of Config; neither the front-end
// adapter nor the default Statistics collaborator reads it.
type DatabaseConfig struct {
	Name         string `yaml:"name"`
	QueryTimeout int    `yaml:"queryTimeout"` // seconds
}

// OptimizerConfig mirrors optimizer.Config's knobs so they can be set from a
// file or environment instead of only in Go code.
type OptimizerConfig struct {
	DefaultParallelism int     `yaml:"defaultParallelism"`
	MaxMachines        int     `yaml:"maxMachines"`
	MemoryFraction     float64 `yaml:"memoryFraction"`
	ClusterTimeoutSecs int     `yaml:"clusterTimeoutSecs"`

	JobManagerAddress string `yaml:"jobManagerAddress"`
	JobManagerPort    int    `yaml:"jobManagerPort"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           6123,
			MaxConnections: 100,
		},
		Database: DatabaseConfig{
			Name:         "pactopt",
			QueryTimeout: 30,
		},
		Optimizer: OptimizerConfig{
			DefaultParallelism: 1,
			MaxMachines:        0,
			MemoryFraction:     0.96,
			ClusterTimeoutSecs: 30,
			JobManagerAddress:  "localhost",
			JobManagerPort:     6123,
		},
	}
}

// Load reads configuration from configFile (or the standard search paths
// when empty), layering environment variables prefixed PACTOPT_ over
// whatever the file sets, and falls back to Default for anything unset.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	cfg := Default()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.pactopt")
		v.AddConfigPath("/etc/pactopt")
	}

	v.SetEnvPrefix("PACTOPT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be positive: %d", c.Server.MaxConnections)
	}
	if c.Optimizer.DefaultParallelism <= 0 {
		return fmt.Errorf("optimizer.defaultParallelism must be positive: %d", c.Optimizer.DefaultParallelism)
	}
	if c.Optimizer.MaxMachines < 0 {
		return fmt.Errorf("optimizer.maxMachines must not be negative: %d", c.Optimizer.MaxMachines)
	}
	if c.Optimizer.MemoryFraction <= 0 || c.Optimizer.MemoryFraction > 1 {
		return fmt.Errorf("optimizer.memoryFraction must be within (0, 1]: %v", c.Optimizer.MemoryFraction)
	}
	return nil
}

// ClusterTimeout returns the configured cluster lookup timeout as a
// time.Duration.
func (c *Config) ClusterTimeout() time.Duration {
	return time.Duration(c.Optimizer.ClusterTimeoutSecs) * time.Second
}

// YAML renders the configuration back to YAML, for a `config` subcommand to
// dump what was actually loaded (file + env + defaults merged) rather than
// the raw file on disk.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

// String returns a formatted string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(`pactopt configuration:
  Server:
    Host: %s
    Port: %d
    Max Connections: %d
  Database:
    Name: %s
    Query Timeout: %d seconds
  Optimizer:
    Default Parallelism: %d
    Max Machines: %d
    Memory Fraction: %.2f
    Cluster Timeout: %ds
    Job Manager: %s:%d`,
		c.Server.Host, c.Server.Port, c.Server.MaxConnections,
		c.Database.Name, c.Database.QueryTimeout,
		c.Optimizer.DefaultParallelism, c.Optimizer.MaxMachines, c.Optimizer.MemoryFraction,
		c.Optimizer.ClusterTimeoutSecs, c.Optimizer.JobManagerAddress, c.Optimizer.JobManagerPort)
}
