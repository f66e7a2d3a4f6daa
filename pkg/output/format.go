// Package output provides utilities for formatting and displaying balancing results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/craft-balancer/internal/diagram"
	"github.com/iwvelando/craft-balancer/pkg/constants"
	"github.com/iwvelando/craft-balancer/pkg/report"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []report.Result) {
	fmt.Print(PrettyString(results))
}

// PrettyString renders the PrettyFormat output as a string.
func PrettyString(results []report.Result) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	for i, result := range results {
		b.WriteString(headerStyle.Render(fmt.Sprintf("--- Results for %s x%d ---", result.Target, result.Count)) + "\n")
		status := "converged"
		if !result.Converged {
			status = warningStyle.Render("NOT converged")
		}
		b.WriteString(p.Sprintf("Efficiency: %.2f%% | Used: %.2f/s | Wasted: %.2f/s | Iterations: %d | %s\n",
			result.Efficiency, result.Used, result.Wasted, result.Iterations, status))
		for _, note := range result.Notes {
			b.WriteString(warningStyle.Render("Note: "+note) + "\n")
		}
		b.WriteString("Recipe | Runs | Inputs | Outputs\n")
		b.WriteString(dimStyle.Render("______ | ____ | ______ | _______") + "\n")
		for _, s := range result.Stacks {
			name := s.Recipe
			if s.Raw {
				name += " (raw)"
			}
			_, _ = fmt.Fprintf(&b, "%s | %s | %s | %s\n",
				name, p.Sprintf("%d", s.Count), throughputList(p, s.Inputs), throughputList(p, s.Outputs))
		}
		if len(results) > 1 && i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func throughputList(p *message.Printer, slots []report.Throughput) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		part := p.Sprintf("%s %.2f/s", slot.Item, slot.UsedTP)
		if slot.UnusedTP > 0 {
			part += p.Sprintf(" (+%.2f spare)", slot.UnusedTP)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// CsvFormat outputs in comma-separated value format, one row per stack.
func CsvFormat(results []report.Result) {
	fmt.Print(CsvString(results))
}

// CsvString renders the CsvFormat output as a string.
func CsvString(results []report.Result) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"target", "count", "efficiency", "converged", "iterations", "recipe", "raw", "runs", "inputs", "outputs"})

	for _, result := range results {
		for _, s := range result.Stacks {
			_ = w.Write([]string{
				result.Target,
				strconv.Itoa(result.Count),
				strconv.FormatFloat(result.Efficiency, 'f', constants.DecimalPlaces, 64),
				strconv.FormatBool(result.Converged),
				strconv.Itoa(result.Iterations),
				s.Recipe,
				strconv.FormatBool(s.Raw),
				strconv.Itoa(s.Count),
				csvThroughput(s.Inputs),
				csvThroughput(s.Outputs),
			})
		}
	}
	w.Flush()
	return buf.String()
}

func csvThroughput(slots []report.Throughput) string {
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		parts = append(parts, slot.Item+"="+strconv.FormatFloat(slot.UsedTP, 'f', constants.DecimalPlaces, 64))
	}
	return strings.Join(parts, ";")
}

// Serialize writes v to w as JSON or YAML.
func Serialize(w io.Writer, format string, v any) error {
	switch format {
	case constants.OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return nil
	case constants.OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to YAML: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported serialization format: %s", format)
	}
}

// MermaidString renders the most efficient result as a Mermaid flowchart.
func MermaidString(results []report.Result) (string, error) {
	best, ok := report.Best(results)
	if !ok {
		return "", fmt.Errorf("no results to chart")
	}
	return diagram.Render(diagram.FromResult(best))
}

// Write prints results to stdout in the given format.
func Write(format string, results []report.Result) error {
	switch format {
	case constants.OutputFormatPretty:
		PrettyFormat(results)
	case constants.OutputFormatCSV:
		CsvFormat(results)
	case constants.OutputFormatJSON, constants.OutputFormatYAML:
		return Serialize(os.Stdout, format, results)
	case constants.OutputFormatMermaid:
		chart, err := MermaidString(results)
		if err != nil {
			return err
		}
		fmt.Print(chart)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
