// Package constants provides shared constants for the craft-balancer application.
package constants

import "time"

// Balancing constants
const (
	// DecimalPlaces is the number of decimal places used when reporting
	// throughput and efficiency figures.
	DecimalPlaces = 2

	// DefaultMaxIterations bounds the balancing loop. Acyclic recipe graphs
	// converge in far fewer passes; reaching it marks the result unreliable.
	DefaultMaxIterations = 100

	// MaxIterationsLimit is the largest configurable iteration cap.
	MaxIterationsLimit = 10000

	// DefaultMaxRangeSize caps how many counts a single range request may span.
	DefaultMaxRangeSize = 1000

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"

	// OutputFormatMermaid renders the most efficient result as a Mermaid flowchart
	OutputFormatMermaid = "mermaid"
)

// OutputFormats lists every supported output format in display order.
var OutputFormats = []string{
	OutputFormatPretty,
	OutputFormatCSV,
	OutputFormatJSON,
	OutputFormatYAML,
	OutputFormatMermaid,
}

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "CRAFT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySize is the default maximum request body size (256 KB)
	DefaultMaxBodySize = 256 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP server
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultRateLimit is the default sustained request rate per second
	DefaultRateLimit = 50

	// DefaultRateLimitBurst is the default request burst size
	DefaultRateLimitBurst = 100
)
