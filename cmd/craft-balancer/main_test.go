package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/config"
	"github.com/iwvelando/craft-balancer/pkg/testutil"
	"go.uber.org/zap"
)

func TestCliRequest(t *testing.T) {
	rc := cliRequest("electronic-circuit", " iron-plate, ,copper-plate ", 1, 4)
	if rc.Name != "cli" || rc.Target != "electronic-circuit" || rc.Count != 1 || rc.CountMax != 4 {
		t.Fatalf("unexpected request %+v", rc)
	}
	if len(rc.Raw) != 2 || rc.Raw[0] != "iron-plate" || rc.Raw[1] != "copper-plate" {
		t.Fatalf("unexpected raw items %v", rc.Raw)
	}

	if empty := cliRequest("iron-plate", "", 1, 0); len(empty.Raw) != 0 {
		t.Fatalf("expected no raw items, got %v", empty.Raw)
	}
}

func TestMergeLogging(t *testing.T) {
	base := config.LoggingConfig{Level: "info", Format: "json"}
	merged := mergeLogging(base, config.LoggingConfig{Level: "debug"})
	if merged.Level != "debug" || merged.Format != "json" {
		t.Fatalf("unexpected merge result %+v", merged)
	}
}

func TestConfigWarnings(t *testing.T) {
	conf := &config.Configuration{
		Recipes: config.RecipesConfig{File: "recipes.json"},
		Requests: []config.RequestConfig{
			{Name: "typo", Target: "iron-gear-wheal", Raw: []string{"iron-plate"}, Count: 1},
		},
	}

	warnings := configWarnings(conf, testutil.RecipeTable(t))
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "unknown item 'iron-gear-wheal'") {
		t.Fatalf("expected an unknown item warning, got %v", warnings)
	}
	if strings.Contains(joined, "'iron-plate'") {
		t.Fatalf("known raw items should not warn: %v", warnings)
	}
}

func TestBalanceAll(t *testing.T) {
	table := testutil.RecipeTable(t)

	tests := []struct {
		name     string
		opts     balancer.Options
		requests []config.RequestConfig
		results  int
		wantErr  error
	}{
		{
			name: "Two requests",
			requests: []config.RequestConfig{
				{Target: "iron-gear-wheel", Raw: []string{"iron-plate"}, Count: 10},
				{Target: "electronic-circuit", Raw: []string{"iron-plate", "copper-plate"}, Count: 1, CountMax: 3},
			},
			results: 4,
		},
		{
			name:     "Strict non-convergence keeps results",
			opts:     balancer.Options{MaxIterations: 10, Strict: true},
			requests: []config.RequestConfig{{Target: "widget", Count: 1}},
			results:  1,
		},
		{
			name:     "Unknown target stops the run",
			requests: []config.RequestConfig{{Name: "bad", Target: "unobtainium", Count: 1}},
			wantErr:  balancer.ErrNoProducer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := balancer.New(zap.NewNop(), table, tt.opts)
			if err != nil {
				t.Fatalf("failed to create balancer: %v", err)
			}

			results, err := balanceAll(context.Background(), zap.NewNop(), b, tt.requests)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !strings.Contains(err.Error(), "Request 'bad'") {
					t.Fatalf("expected the request label in %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("balanceAll() error = %v", err)
			}
			if len(results) != tt.results {
				t.Fatalf("expected %d results, got %d", tt.results, len(results))
			}
		})
	}
}
