// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/craft-balancer/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(constants.OutputFormats, format) {
		return fmt.Errorf("expected output format of %s, got %s",
			strings.Join(constants.OutputFormats, ", "), format)
	}
	return nil
}
