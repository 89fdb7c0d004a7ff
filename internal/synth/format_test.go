package synth

import (
	"testing"

	"github.com/halcyonhealth/dashforge/internal/model"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value    float64
		dataType model.DataType
		format   string
		want     string
	}{
		{1_500_000, model.DataTypeCurrency, "", "$1.5M"},
		{2_000_000, model.DataTypeCurrency, "", "$2M"},
		{25_000, model.DataTypeCurrency, "", "$25K"},
		{950, model.DataTypeCurrency, "", "$950"},
		{-1_500_000, model.DataTypeCurrency, "", "-$1.5M"},
		{72.5, model.DataTypePercentage, "", "72.5%"},
		{100, model.DataTypePercentage, "", "100%"},
		{2.5, model.DataTypeRatio, "", "2.5x"},
		{12345.6, model.DataTypeCount, "", "12,346"},
		{999, model.DataTypeCount, "", "999"},
		{3.0, model.DataTypeNumber, "", "3"},
		{3.14, model.DataTypeNumber, "", "3.1"},
		{80, model.DataTypeNumber, "percent", "80%"},
		{50_000, model.DataTypeNumber, "currency", "$50K"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.value, tt.dataType, tt.format); got != tt.want {
			t.Errorf("FormatValue(%g, %s, %q) = %q, want %q", tt.value, tt.dataType, tt.format, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	if got := formatSigned(125_000, model.DataTypeCurrency); got != "+$125K" {
		t.Errorf("expected +$125K, got %q", got)
	}
	if got := formatSigned(-125_000, model.DataTypeCurrency); got != "-$125K" {
		t.Errorf("expected -$125K, got %q", got)
	}
	if got := formatSigned(4.2, model.DataTypeNumber); got != "+4.2" {
		t.Errorf("expected +4.2, got %q", got)
	}
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4800, "-4,800"},
	}
	for _, tt := range tests {
		if got := groupThousands(tt.in); got != tt.want {
			t.Errorf("groupThousands(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFmtTrend(t *testing.T) {
	if got := fmtTrend(12.5); got != "up 12.5%" {
		t.Errorf("expected up trend, got %q", got)
	}
	if got := fmtTrend(-3.2); got != "down 3.2%" {
		t.Errorf("expected down trend, got %q", got)
	}
}
