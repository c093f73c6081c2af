// Package config provides a reusable loader for zinc's compiler and
// sandbox-server settings, merging a default YAML file with an
// optional environment-named override and then environment variables.
// It is versioned so that applications can depend on a stable API
// contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"zinc/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for the zinc compiler, VM and
// sandbox server. It mirrors the structure of the YAML files under
// cmd/config.
type Config struct {
	Compiler struct {
		ID                  string `mapstructure:"id" json:"id"`
		MaxIntegerBitlength int    `mapstructure:"max_integer_bitlength" json:"max_integer_bitlength"`
		AllowDbg            bool   `mapstructure:"allow_dbg" json:"allow_dbg"`
		OptimizeConstants   bool   `mapstructure:"optimize_constants" json:"optimize_constants"`
	} `mapstructure:"compiler" json:"compiler"`

	VM struct {
		MaxLoopIterations int    `mapstructure:"max_loop_iterations" json:"max_loop_iterations"`
		WitnessMode       bool   `mapstructure:"witness_mode" json:"witness_mode"`
		Hasher            string `mapstructure:"hasher" json:"hasher"`
	} `mapstructure:"vm" json:"vm"`

	Storage struct {
		TreeDepth int `mapstructure:"tree_depth" json:"tree_depth"`
	} `mapstructure:"storage" json:"storage"`

	Server struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"server" json:"server"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ZINC_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ZINC_ENV", ""))
}
