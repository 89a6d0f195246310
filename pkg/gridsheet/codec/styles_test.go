package codec

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

func TestColorConversion(t *testing.T) {
	tests := []struct {
		css, excel string
	}{
		{"#ff0000", "FF0000"},
		{"00AAbb", "00AABB"},
		{"1px solid #123456", "123456"},
		{"red", ""},
	}
	for _, tt := range tests {
		if got := excelColor(tt.css); got != tt.excel {
			t.Errorf("excelColor(%q) = %q, want %q", tt.css, got, tt.excel)
		}
	}
	for input, want := range map[string]string{
		"FF00FF00": "#00FF00",
		"#abcdef":  "#ABCDEF",
		"123":      "",
	} {
		if got := cssColor(input); got != want {
			t.Errorf("cssColor(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStyleRoundTrip(t *testing.T) {
	tests := []models.CellStyle{
		{FontWeight: "bold", Background: "#FFEE00", TextAlign: "center", VerticalAlign: "middle"},
		{FontStyle: "italic", TextDecoration: "underline line-through", Color: "#336699"},
		{TextAlign: "right", Border: "1px solid #000000"},
	}
	for _, style := range tests {
		out := toExcelStyle(&style, "")
		if out == nil {
			t.Fatalf("toExcelStyle(%+v) returned nil", style)
		}
		got, format := fromExcelStyle(out)
		if format != "" {
			t.Errorf("Expected no number format, got %q", format)
		}
		if got == nil || *got != style {
			t.Errorf("style round trip = %+v, want %+v", got, style)
		}
	}
}

func TestToExcelStyle(t *testing.T) {
	if got := toExcelStyle(nil, ""); got != nil {
		t.Errorf("Expected nil for an empty style, got %+v", got)
	}
	out := toExcelStyle(nil, "0.00%")
	if out == nil || out.CustomNumFmt == nil || *out.CustomNumFmt != "0.00%" {
		t.Errorf("Expected custom number format, got %+v", out)
	}
	out = toExcelStyle(&models.CellStyle{TextDecoration: "underline", FontSize: 14, FontFamily: "Arial"}, "")
	if out.Font == nil || out.Font.Underline != "single" || out.Font.Size != 14 || out.Font.Family != "Arial" {
		t.Errorf("Unexpected font %+v", out.Font)
	}
}

func TestFromExcelStyleDropsInvisible(t *testing.T) {
	style, format := fromExcelStyle(&excelize.Style{Font: &excelize.Font{Family: "Calibri", Size: 11}})
	if style != nil {
		t.Errorf("Expected default font to be dropped, got %+v", style)
	}
	if format != "" {
		t.Errorf("Expected no format, got %q", format)
	}
	fmtCode := "yyyy-mm-dd"
	if _, format := fromExcelStyle(&excelize.Style{CustomNumFmt: &fmtCode}); format != fmtCode {
		t.Errorf("Expected format %q, got %q", fmtCode, format)
	}
}
