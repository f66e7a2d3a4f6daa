// Package format renders exact throughput figures for humans.
package format

import (
	"math/big"
	"strings"

	"github.com/iwvelando/craft-balancer/pkg/constants"
)

// Rate returns a throughput string with thousands separators and the
// reporting precision (e.g., "-1,234.56").
func Rate(value *big.Rat) string {
	if value == nil {
		value = new(big.Rat)
	}
	formatted := value.FloatString(constants.DecimalPlaces)
	sign := ""
	if strings.HasPrefix(formatted, "-") {
		formatted = formatted[1:]
		if strings.Trim(formatted, "0.") != "" {
			sign = "-"
		}
	}
	return sign + groupThousands(formatted)
}

// PerSecond returns Rate with a "/s" suffix.
func PerSecond(value *big.Rat) string {
	return Rate(value) + "/s"
}

// Percent returns an efficiency string such as "87.50%".
func Percent(value *big.Rat) string {
	return Rate(value) + "%"
}

func groupThousands(value string) string {
	parts := strings.SplitN(value, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
