package diagram

import (
	"strings"
	"testing"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/pkg/report"
	"github.com/iwvelando/craft-balancer/pkg/testutil"
	"go.uber.org/zap"
)

func gearPlan(t *testing.T) report.Result {
	t.Helper()
	b, err := balancer.New(zap.NewNop(), testutil.RecipeTable(t), balancer.Options{})
	if err != nil {
		t.Fatalf("failed to create balancer: %v", err)
	}
	res, err := b.Optimize(balancer.Request{Target: "iron-gear-wheel", Raw: []string{"iron-plate"}, Count: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return report.FromResult(res)
}

func TestFromResult(t *testing.T) {
	chart := FromResult(gearPlan(t))

	expectedNodes := []Node{
		{ID: "s0", Label: "iron-gear-wheel x10"},
		{ID: "s1", Label: "iron-plate 40/s", Shape: ShapeStadium},
		{ID: "demand", Label: "iron-gear-wheel 20/s", Shape: ShapeCircle},
	}
	if len(chart.Nodes) != len(expectedNodes) {
		t.Fatalf("expected %d nodes, got %+v", len(expectedNodes), chart.Nodes)
	}
	for i, n := range expectedNodes {
		if chart.Nodes[i] != n {
			t.Fatalf("node %d: expected %+v, got %+v", i, n, chart.Nodes[i])
		}
	}

	expectedEdges := []Edge{
		{From: "s1", To: "s0", Label: "iron-plate 40/s"},
		{From: "s0", To: "demand", Label: "100% efficient", Line: LineThick},
	}
	if len(chart.Edges) != len(expectedEdges) {
		t.Fatalf("expected %d edges, got %+v", len(expectedEdges), chart.Edges)
	}
	for i, e := range expectedEdges {
		if chart.Edges[i] != e {
			t.Fatalf("edge %d: expected %+v, got %+v", i, e, chart.Edges[i])
		}
	}

	out, err := Render(chart)
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	for _, want := range []string{
		"s1([\"`iron-plate 40/s`\"])",
		"demand((\"`iron-gear-wheel 20/s`\"))",
		"s0 ==> |\"`100% efficient`\"| demand",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFromResultEmpty(t *testing.T) {
	chart := FromResult(report.Result{})
	if len(chart.Nodes) != 0 || len(chart.Edges) != 0 {
		t.Fatalf("expected an empty chart, got %+v", chart)
	}
}
