// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/pkg/constants"
	"github.com/iwvelando/craft-balancer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for craft-balancer.
type Configuration struct {
	Recipes  RecipesConfig   `yaml:"recipes" mapstructure:"recipes"`
	Balancer BalancerConfig  `yaml:"balancer,omitempty" mapstructure:"balancer"`
	Requests []RequestConfig `yaml:"requests,omitempty" mapstructure:"requests"`
	Logging  LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
}

// RecipesConfig locates the recipe table.
type RecipesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// RequestConfig is one named balancing request.
type RequestConfig struct {
	Name     string   `yaml:"name,omitempty" mapstructure:"name"`
	Target   string   `yaml:"target" mapstructure:"target"`
	Raw      []string `yaml:"raw,omitempty" mapstructure:"raw"`
	Count    int      `yaml:"count" mapstructure:"count"`
	CountMax int      `yaml:"countMax,omitempty" mapstructure:"countMax"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, yaml, mermaid
}

// Request converts the configured request.
func (r RequestConfig) Request() balancer.Request {
	return balancer.Request{
		Target:   strings.TrimSpace(r.Target),
		Raw:      r.Raw,
		Count:    r.Count,
		CountMax: r.CountMax,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as the key list AutomaticEnv can override.
	v.SetDefault("recipes.file", "")
	v.SetDefault("balancer.maxIterations", constants.DefaultMaxIterations)
	v.SetDefault("balancer.concurrency", 0)
	v.SetDefault("balancer.maxRangeSize", constants.DefaultMaxRangeSize)
	v.SetDefault("balancer.strict", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.Balancer.Normalize()
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A relative recipes file is resolved against the
// directory of the configuration file. CRAFT_* environment variables
// override scalar settings.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	configuration, err := decode(v)
	if err != nil {
		return nil, err
	}
	configuration.Recipes.File = resolvePath(filepath.Dir(configPath), configuration.Recipes.File)
	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML configuration from r. Relative
// paths are left as written.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

// LoadFromEnv builds a configuration from defaults and CRAFT_* environment
// variables only, e.g. CRAFT_RECIPES_FILE and CRAFT_BALANCER_MAXITERATIONS.
func LoadFromEnv() (*Configuration, error) {
	return decode(newViper())
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Validate returns an error when the configuration cannot be run.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.Recipes.File) == "" {
		return fmt.Errorf("recipes.file is required")
	}
	if err := c.Balancer.Validate(); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	for i, req := range c.Requests {
		if err := req.Request().Validate(c.Balancer.MaxRangeSize); err != nil {
			return fmt.Errorf("%s: %w", validation.RequestLabel(i, req.Name), err)
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{}
	for _, req := range c.Requests {
		validator.Requests = append(validator.Requests, validation.RequestConfig{
			Name:     req.Name,
			Target:   req.Target,
			Raw:      req.Raw,
			Count:    req.Count,
			CountMax: req.CountMax,
		})
	}

	warnings := validator.ValidateAll()
	if len(c.Requests) == 0 {
		warnings = append(warnings, "No requests configured; nothing will be balanced")
	}
	return warnings
}
