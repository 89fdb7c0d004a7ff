package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// FormatValue renders a raw value as its display string for the given data
// type. Downstream rendering depends on the display string being derivable
// from the raw value, so this is the single formatting path for all
// generators.
func FormatValue(value float64, dataType model.DataType, format string) string {
	switch dataType {
	case model.DataTypeCurrency:
		return formatCurrency(value)
	case model.DataTypePercentage:
		return formatFloat(value, 1) + "%"
	case model.DataTypeRatio:
		return formatFloat(value, 1) + "x"
	case model.DataTypeCount:
		return groupThousands(int64(math.Round(value)))
	default:
		if format == "percent" || format == "percentage" {
			return formatFloat(value, 1) + "%"
		}
		if format == "currency" {
			return formatCurrency(value)
		}
		return formatFloat(value, 1)
	}
}

// formatCurrency abbreviates large amounts to K/M and never renders a sign
// for zero
func formatCurrency(value float64) string {
	abs := math.Abs(value)
	sign := ""
	if value < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e6:
		return sign + "$" + formatFloat(abs/1e6, 1) + "M"
	case abs >= 1e4:
		return sign + "$" + formatFloat(abs/1e3, 0) + "K"
	default:
		return sign + "$" + groupThousands(int64(math.Round(abs)))
	}
}

// formatSigned renders a value with an explicit sign, used for deltas and
// waterfall changes
func formatSigned(value float64, dataType model.DataType) string {
	display := FormatValue(math.Abs(value), dataType, "")
	if value < 0 {
		return "-" + display
	}
	return "+" + display
}

func formatFloat(value float64, decimals int) string {
	s := strconv.FormatFloat(value, 'f', decimals, 64)
	// Trim a trailing ".0" so whole numbers read naturally
	if decimals > 0 {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fmtTrend(delta float64) string {
	if delta >= 0 {
		return fmt.Sprintf("up %.1f%%", delta)
	}
	return fmt.Sprintf("down %.1f%%", -delta)
}
