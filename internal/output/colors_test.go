package output

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/mobil-koeln/sunmap/internal/testutil"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"always", ColorAlways},
		{"never", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},        // default
		{"invalid", ColorAuto}, // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseColorMode(tt.input)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestNewColors_NeverMode(t *testing.T) {
	// Save and restore color state
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()
	color.NoColor = true

	c := NewColors(ColorNever)

	testutil.AssertEqual(t, c.Header("13.41,122.56"), "13.41,122.56")
	testutil.AssertEqual(t, c.Label("Address:"), "Address:")
	testutil.AssertEqual(t, c.Address("Pili"), "Pili")
	testutil.AssertEqual(t, c.Sunrise("06:00"), "06:00")
	testutil.AssertEqual(t, c.Sunset("18:00"), "18:00")
	testutil.AssertEqual(t, c.Error("oops"), "oops")
	testutil.AssertEqual(t, c.Muted("N/A"), "N/A")
}

func TestNewColors_AlwaysMode(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	// We check for ANSI escape sequences (starting with \033[)
	for _, fn := range []func(string, ...interface{}) string{c.Header, c.Label, c.Sunrise, c.Error} {
		result := fn("value")
		testutil.AssertContains(t, result, "\033[")
		testutil.AssertContains(t, result, "value")
	}
}

func TestColors_Value(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	// N/A is rendered muted, not in the value color
	testutil.AssertEqual(t, c.Value(c.Sunrise, notAvailable), c.Muted("%s", notAvailable))
	testutil.AssertEqual(t, c.Value(c.Sunrise, "06:00"), c.Sunrise("%s", "06:00"))
}

func TestColors_Sprintf(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()
	color.NoColor = true

	c := NewColors(ColorNever)

	testutil.AssertEqual(t, c.Header("%.2f,%.2f", 13.41, 122.56), "13.41,122.56")
	testutil.AssertEqual(t, c.Label("%-10s|", "Address:"), "Address:  |")
}

// stripANSI removes color escape sequences
func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
