package integration

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/config"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/internal/server"
	"github.com/iwvelando/craft-balancer/pkg/output"
	"github.com/iwvelando/craft-balancer/pkg/report"
	"go.uber.org/zap"
)

const testConfig = "../test_config.yaml"

// loadAndBalance processes the test configuration exactly as main() does.
func loadAndBalance(t *testing.T) (*config.Configuration, []report.Result) {
	t.Helper()
	logger := zap.NewNop()

	conf, err := config.LoadConfiguration(testConfig)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	table, err := recipe.LoadTable(conf.Recipes.File)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	b, err := balancer.New(logger, table, conf.Balancer.Options())
	if err != nil {
		t.Fatalf("balancer.New() error = %v", err)
	}

	var all []report.Result
	for _, rc := range conf.Requests {
		results, err := b.OptimizeRange(context.Background(), rc.Request())
		if err != nil && !errors.Is(err, balancer.ErrNotConverged) {
			t.Fatalf("OptimizeRange(%s) error = %v", rc.Name, err)
		}
		all = append(all, report.FromResults(results)...)
	}
	return conf, all
}

func TestMainIntegrationBaseline(t *testing.T) {
	_, results := loadAndBalance(t)

	// gears x1, circuits x4, heavy oil x1, cycle x1
	if len(results) != 7 {
		t.Fatalf("Expected 7 results, got %d", len(results))
	}

	baseline := []struct {
		target     string
		count      int
		efficiency float64
		converged  bool
	}{
		{"iron-gear-wheel", 10, 100, true},
		{"electronic-circuit", 2, 100, true},
		{"electronic-circuit", 4, 100, true},
		{"electronic-circuit", 3, 95.24, true},
		{"electronic-circuit", 1, 87.5, true},
		{"heavy-oil", 1, 63.64, true},
		{"widget", 1, results[6].Efficiency, false},
	}

	for i, want := range baseline {
		got := results[i]
		if got.Target != want.target || got.Count != want.count {
			t.Errorf("result %d: expected %s x%d, got %s x%d", i, want.target, want.count, got.Target, got.Count)
		}
		if got.Efficiency != want.efficiency {
			t.Errorf("result %d (%s x%d): expected efficiency %.2f, got %.2f", i, got.Target, got.Count, want.efficiency, got.Efficiency)
		}
		if got.Converged != want.converged {
			t.Errorf("result %d (%s x%d): expected converged=%v", i, got.Target, got.Count, want.converged)
		}
	}

	if cycle := results[6]; cycle.Iterations != 10 || len(cycle.Notes) == 0 {
		t.Errorf("expected the cycle to stop at the cap with a note, got %d iterations and notes %v", cycle.Iterations, cycle.Notes)
	}
}

func TestCSVOutputFormat(t *testing.T) {
	_, results := loadAndBalance(t)

	records, err := csv.NewReader(strings.NewReader(output.CsvString(results))).ReadAll()
	if err != nil {
		t.Fatalf("CSV output is not parseable: %v", err)
	}

	header := strings.Join(records[0], ",")
	if header != "target,count,efficiency,converged,iterations,recipe,raw,runs,inputs,outputs" {
		t.Errorf("unexpected CSV header %s", header)
	}

	stacks := 0
	for _, r := range results {
		stacks += len(r.Stacks)
	}
	if len(records)-1 != stacks {
		t.Errorf("expected one CSV row per stack (%d), got %d", stacks, len(records)-1)
	}

	first := records[1]
	if first[0] != "iron-gear-wheel" || first[1] != "10" || first[2] != "100.00" || first[3] != "true" {
		t.Errorf("unexpected first row %v", first)
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	_, results := loadAndBalance(t)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	output.PrettyFormat(results)

	_ = w.Close()
	os.Stdout = oldStdout
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"--- Results for iron-gear-wheel x10 ---",
		"--- Results for heavy-oil x1 ---",
		"Efficiency: 63.64%",
		"NOT converged",
		"iron-plate (raw)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q", want)
		}
	}
}

func TestDataConsistency(t *testing.T) {
	_, first := loadAndBalance(t)
	_, second := loadAndBalance(t)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("failed to marshal results: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("failed to marshal results: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("two runs over the same configuration produced different results")
	}
}

func TestServerEndToEnd(t *testing.T) {
	conf, err := config.LoadConfiguration(testConfig)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	table, err := recipe.LoadTable(conf.Recipes.File)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	b, err := balancer.New(zap.NewNop(), table, conf.Balancer.Options())
	if err != nil {
		t.Fatalf("balancer.New() error = %v", err)
	}

	ts := httptest.NewServer(server.NewHandler(zap.NewNop(), b, table, nil, "test"))
	defer ts.Close()

	body := `{"target":"electronic-circuit","raw":["iron-plate","copper-plate"],"count":1,"countMax":4}`
	resp, err := http.Post(ts.URL+"/api/optimize", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/optimize failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var payload server.OptimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Results) != 4 || payload.Results[0].Count != 2 {
		t.Fatalf("unexpected results %+v", payload.Results)
	}
}
