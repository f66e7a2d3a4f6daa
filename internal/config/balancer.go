package config

import (
	"fmt"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/pkg/constants"
)

// BalancerConfig tunes the balancing loop.
type BalancerConfig struct {
	MaxIterations int  `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
	Concurrency   int  `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	MaxRangeSize  int  `yaml:"maxRangeSize,omitempty" mapstructure:"maxRangeSize"`
	Strict        bool `yaml:"strict,omitempty" mapstructure:"strict"`
}

// Normalize ensures defaults are applied before validation. A concurrency
// of zero means one worker per CPU.
func (b *BalancerConfig) Normalize() {
	if b == nil {
		return
	}
	if b.MaxIterations <= 0 {
		b.MaxIterations = constants.DefaultMaxIterations
	}
	if b.MaxRangeSize <= 0 {
		b.MaxRangeSize = constants.DefaultMaxRangeSize
	}
}

// Validate returns an error when the balancer configuration is unsupported.
func (b *BalancerConfig) Validate() error {
	if b == nil {
		return fmt.Errorf("balancer configuration cannot be nil")
	}

	b.Normalize()

	if b.MaxIterations > constants.MaxIterationsLimit {
		return fmt.Errorf("balancer maxIterations %d exceeds the limit of %d", b.MaxIterations, constants.MaxIterationsLimit)
	}
	if b.Concurrency < 0 {
		return fmt.Errorf("balancer concurrency %d must not be negative", b.Concurrency)
	}
	return nil
}

// Options converts the configuration into balancer options.
func (b BalancerConfig) Options() balancer.Options {
	return balancer.Options{
		MaxIterations: b.MaxIterations,
		Concurrency:   b.Concurrency,
		MaxRangeSize:  b.MaxRangeSize,
		Strict:        b.Strict,
	}
}
