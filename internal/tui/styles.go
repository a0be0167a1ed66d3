package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors matching the output/colors.go scheme
var (
	colorCyan    = lipgloss.Color("6")  // Cyan - labels, cursor
	colorYellow  = lipgloss.Color("3")  // Yellow - sunrise, loading
	colorRed     = lipgloss.Color("1")  // Red - marker, errors
	colorMagenta = lipgloss.Color("5")  // Magenta - sunset
	colorWhite   = lipgloss.Color("15") // White - text
	colorGray    = lipgloss.Color("8")  // Gray - muted text, graticule
)

// Text styles
var (
	styleLabel   = lipgloss.NewStyle().Foreground(colorCyan)
	styleSunrise = lipgloss.NewStyle().Foreground(colorYellow)
	styleSunset  = lipgloss.NewStyle().Foreground(colorMagenta)
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader  = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Logo/brand style
var styleLogo = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
