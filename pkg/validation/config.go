package validation

import (
	"fmt"
)

// RequestConfig is the subset of a configured request that validation needs.
type RequestConfig struct {
	Name     string
	Target   string
	Raw      []string
	Count    int
	CountMax int
}

// ConfigValidator checks configured requests for suspicious but legal
// settings.
type ConfigValidator struct {
	Requests []RequestConfig
}

// ValidateAll validates every request and returns warnings.
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string
	names := make(map[string]int)

	for i, req := range cv.Requests {
		label := RequestLabel(i, req.Name)
		if req.Name != "" {
			names[req.Name]++
			if names[req.Name] == 2 {
				warnings = append(warnings, fmt.Sprintf("Request name '%s' is used more than once", req.Name))
			}
		}
		warnings = append(warnings, ValidateRaw(label, req.Target, req.Raw)...)
		if req.Count == 0 && req.CountMax == 0 {
			warnings = append(warnings, fmt.Sprintf("%s has count 0 and will produce an empty plan", label))
		}
	}

	return warnings
}

// RequestLabel names a request for messages, falling back to its position.
func RequestLabel(index int, name string) string {
	if name == "" {
		return fmt.Sprintf("Request #%d", index+1)
	}
	return fmt.Sprintf("Request '%s'", name)
}

// ValidateRaw warns about duplicate raw items and a target declared raw.
func ValidateRaw(label, target string, raw []string) []string {
	var warnings []string
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		if seen[item] {
			warnings = append(warnings, fmt.Sprintf("%s lists raw item '%s' more than once", label, item))
			continue
		}
		seen[item] = true
		if item == target {
			warnings = append(warnings, fmt.Sprintf("%s declares its target '%s' raw; the plan is a single supply", label, target))
		}
	}
	return warnings
}

// ValidateKnownItems warns about items no recipe consumes or produces,
// which usually means a typo.
func ValidateKnownItems(label string, items []string, known func(string) bool) []string {
	var warnings []string
	for _, item := range items {
		if item != "" && !known(item) {
			warnings = append(warnings, fmt.Sprintf("%s references unknown item '%s'", label, item))
		}
	}
	return warnings
}
