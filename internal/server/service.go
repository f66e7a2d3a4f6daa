package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/pkg/output"
	"github.com/iwvelando/craft-balancer/pkg/report"
	"github.com/iwvelando/craft-balancer/pkg/validation"
)

// OptimizeResponse is the payload of POST /api/optimize and of the Lambda
// entry point.
type OptimizeResponse struct {
	Results  []report.Result `json:"results"`
	Warnings []string        `json:"warnings,omitempty"`
	Duration string          `json:"duration"`
}

// DiagramResponse carries Mermaid flowchart source.
type DiagramResponse struct {
	Mermaid string `json:"mermaid"`
}

// Optimize balances every count of req and converts the results for
// transport. Requests naming items unknown to table still run; the names
// come back as warnings.
func Optimize(ctx context.Context, b *balancer.Balancer, table *recipe.Table, req balancer.Request) (*OptimizeResponse, error) {
	start := time.Now()

	results, err := b.OptimizeRange(ctx, req)
	if err != nil {
		return nil, err
	}

	label := validation.RequestLabel(0, "")
	warnings := validation.ValidateRaw(label, req.Target, req.Raw)
	warnings = append(warnings, validation.ValidateKnownItems(label, req.Raw, table.HasItem)...)

	return &OptimizeResponse{
		Results:  report.FromResults(results),
		Warnings: warnings,
		Duration: time.Since(start).String(),
	}, nil
}

// Diagram renders the most efficient result of req as Mermaid.
func Diagram(ctx context.Context, b *balancer.Balancer, req balancer.Request) (*DiagramResponse, error) {
	results, err := b.OptimizeRange(ctx, req)
	if err != nil {
		return nil, err
	}
	src, err := output.MermaidString(report.FromResults(results))
	if err != nil {
		return nil, err
	}
	return &DiagramResponse{Mermaid: src}, nil
}

// StatusCode maps a balancing error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, balancer.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, balancer.ErrNoProducer):
		return http.StatusNotFound
	case errors.Is(err, balancer.ErrNotConverged):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// splitList splits a comma separated query value, dropping blanks.
func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
