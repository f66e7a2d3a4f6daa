package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/craft-balancer/pkg/constants"
)

const sampleConfig = `recipes:
  file: recipes.json
balancer:
  maxIterations: 50
  concurrency: 2
  strict: true
requests:
  - name: circuits
    target: electronic-circuit
    raw: [iron-plate, copper-plate]
    count: 1
    countMax: 4
  - target: iron-gear-wheel
    raw: [iron-plate]
    count: 10
logging:
  level: debug
  format: console
output:
  format: json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Sample config",
			configPath: writeConfig(t, sampleConfig),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFields(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if want := filepath.Join(filepath.Dir(path), "recipes.json"); config.Recipes.File != want {
		t.Errorf("recipes file = %q, expected %q", config.Recipes.File, want)
	}
	if config.Balancer.MaxIterations != 50 || config.Balancer.Concurrency != 2 || !config.Balancer.Strict {
		t.Errorf("unexpected balancer config: %+v", config.Balancer)
	}
	if config.Balancer.MaxRangeSize != constants.DefaultMaxRangeSize {
		t.Errorf("maxRangeSize = %d, expected default %d", config.Balancer.MaxRangeSize, constants.DefaultMaxRangeSize)
	}
	if len(config.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(config.Requests))
	}

	first := config.Requests[0]
	if first.Name != "circuits" || first.Target != "electronic-circuit" || first.Count != 1 || first.CountMax != 4 {
		t.Errorf("unexpected first request: %+v", first)
	}
	if len(first.Raw) != 2 || first.Raw[1] != "copper-plate" {
		t.Errorf("unexpected raw list: %v", first.Raw)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "console" {
		t.Errorf("unexpected logging config: %+v", config.Logging)
	}
	if config.Output.Format != constants.OutputFormatJSON {
		t.Errorf("output format = %q", config.Output.Format)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigurationAbsoluteRecipes(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "table.json")
	config, err := LoadConfiguration(writeConfig(t, "recipes:\n  file: "+abs+"\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Recipes.File != abs {
		t.Errorf("absolute recipes path rewritten to %q", config.Recipes.File)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Recipes.File != "recipes.json" {
		t.Errorf("reader configs keep paths as written, got %q", config.Recipes.File)
	}

	if _, err := LoadConfigurationFromReader(strings.NewReader("recipes: [unclosed")); err == nil {
		t.Errorf("expected an error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CRAFT_BALANCER_MAXITERATIONS", "7")
	t.Setenv("CRAFT_OUTPUT_FORMAT", "csv")

	config, err := LoadConfiguration(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Balancer.MaxIterations != 7 {
		t.Errorf("maxIterations = %d, expected env override 7", config.Balancer.MaxIterations)
	}
	if config.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %q, expected env override csv", config.Output.Format)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CRAFT_RECIPES_FILE", "/var/task/recipes.json")
	t.Setenv("CRAFT_BALANCER_STRICT", "true")
	t.Setenv("CRAFT_LOGGING_LEVEL", "warn")

	config, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if config.Recipes.File != "/var/task/recipes.json" {
		t.Errorf("recipes file = %q", config.Recipes.File)
	}
	if !config.Balancer.Strict {
		t.Errorf("expected strict mode from the environment")
	}
	if config.Balancer.MaxIterations != constants.DefaultMaxIterations {
		t.Errorf("maxIterations = %d, expected default", config.Balancer.MaxIterations)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("logging level = %q", config.Logging.Level)
	}
	if len(config.Requests) != 0 {
		t.Errorf("environment configs carry no requests, got %d", len(config.Requests))
	}
}

func TestConfigurationValidate(t *testing.T) {
	valid := func() *Configuration {
		return &Configuration{
			Recipes:  RecipesConfig{File: "recipes.json"},
			Requests: []RequestConfig{{Name: "gears", Target: "iron-gear-wheel", Count: 10}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Configuration)
		wantErr string
	}{
		{"Valid", func(c *Configuration) {}, ""},
		{"Missing recipes file", func(c *Configuration) { c.Recipes.File = " " }, "recipes.file is required"},
		{"Unknown output format", func(c *Configuration) { c.Output.Format = "xml" }, "expected output format"},
		{"Missing target", func(c *Configuration) { c.Requests[0].Target = "" }, "Request 'gears'"},
		{"Inverted range", func(c *Configuration) { c.Requests[0].CountMax = 2 }, "countMax 2 is below count 10"},
		{"Range too wide", func(c *Configuration) {
			c.Balancer.MaxRangeSize = 5
			c.Requests[0].CountMax = 20
		}, "exceeds the maximum of 5 counts"},
		{"Negative concurrency", func(c *Configuration) { c.Balancer.Concurrency = -1 }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	c := &Configuration{
		Recipes: RecipesConfig{File: "recipes.json"},
		Requests: []RequestConfig{
			{Name: "dup", Target: "iron-plate", Raw: []string{"iron-plate"}, Count: 1},
			{Name: "dup", Target: "copper-cable", Count: 0},
		},
	}

	warnings := c.ValidateConfiguration()
	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"used more than once", "declares its target 'iron-plate' raw", "count 0"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected a warning containing %q, got %v", want, warnings)
		}
	}

	empty := &Configuration{Recipes: RecipesConfig{File: "recipes.json"}}
	if w := empty.ValidateConfiguration(); len(w) != 1 || !strings.Contains(w[0], "No requests configured") {
		t.Errorf("unexpected warnings for empty request list: %v", w)
	}
}

func TestRequestConversion(t *testing.T) {
	rc := RequestConfig{Target: " electronic-circuit ", Raw: []string{"iron-plate"}, Count: 2, CountMax: 3}
	req := rc.Request()
	if req.Target != "electronic-circuit" {
		t.Errorf("target not trimmed: %q", req.Target)
	}
	if got := req.Counts(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("unexpected counts %v", got)
	}
}
