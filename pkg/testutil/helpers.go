// Package testutil provides common utility functions for testing.
package testutil

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/craft-balancer/internal/recipe"
)

// RecipeJSON is the shared recipe fixture. It covers plain chains
// (iron-gear-wheel), multi-output byproducts (advanced-oil-processing),
// name precedence (empty-barrel), probabilistic products
// (uranium-processing) and a divergent cycle (widget/gizmo).
//
//go:embed testdata/recipes.json
var RecipeJSON []byte

// RecipeTable parses RecipeJSON, failing the test on error.
func RecipeTable(tb testing.TB) *recipe.Table {
	tb.Helper()
	table, err := recipe.ParseTable(RecipeJSON)
	if err != nil {
		tb.Fatalf("failed to parse recipe fixture: %v", err)
	}
	return table
}

// WriteRecipeFile writes RecipeJSON into dir and returns the file path.
func WriteRecipeFile(tb testing.TB, dir string) string {
	tb.Helper()
	path := filepath.Join(dir, "recipes.json")
	if err := os.WriteFile(path, RecipeJSON, 0644); err != nil {
		tb.Fatalf("failed to write recipe fixture: %v", err)
	}
	return path
}
