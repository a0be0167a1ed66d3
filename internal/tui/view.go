package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
)

const (
	headerHeight  = 1
	minPanelWidth = 28
	maxPanelWidth = 48

	attribution = "Geocoding © Google · Sun times © sunrise-sunset.org"
)

// layout holds the computed geometry of the screen.
type layout struct {
	mapWidth   int
	mapHeight  int
	panelWidth int
	// top-left cell of the map content, inside its border
	mapLeft int
	mapTop  int
}

func (m Model) layout() layout {
	panelWidth := m.width / 3
	if panelWidth < minPanelWidth {
		panelWidth = minPanelWidth
	}
	if panelWidth > maxPanelWidth {
		panelWidth = maxPanelWidth
	}

	// two bordered panels side by side
	mapWidth := m.width - panelWidth - 4
	if mapWidth < 10 {
		mapWidth = 10
	}
	mapHeight := m.height - headerHeight - lipgloss.Height(m.renderStatusBar()) - 2
	if mapHeight < 3 {
		mapHeight = 3
	}

	return layout{
		mapWidth:   mapWidth,
		mapHeight:  mapHeight,
		panelWidth: panelWidth,
		mapLeft:    1,
		mapTop:     headerHeight + 1,
	}
}

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	l := m.layout()
	header := m.renderHeader()
	statusBar := m.renderStatusBar()

	mapPanel := stylePanelFocused.
		Width(l.mapWidth).
		Height(l.mapHeight).
		Render(renderMap(m.view, m.cursorCol, m.cursorRow, m.marker))

	popupPanel := stylePanelNormal.
		Width(l.panelWidth).
		Height(l.mapHeight).
		Render(m.renderPopup(l.panelWidth))

	panels := lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, popupPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, statusBar)
}

// renderHeader renders the brand and position line, or the coordinate prompt.
func (m Model) renderHeader() string {
	if m.focus == focusPrompt {
		line := styleHeader.Render("Go to: ") + m.prompt.View()
		if m.promptErr != nil {
			line += "  " + styleError.Render(m.promptErr.Error())
		}
		return truncateStyled(line, m.width)
	}

	lat, lng := m.cursorCoord()
	info := fmt.Sprintf(" cursor %s · zoom %d", models.FormatCoordinate(round(lat), round(lng)), m.view.zoom)
	return truncateStyled(styleLogo.Render("☀ sunmap")+styleMuted.Render(info), m.width)
}

// renderPopup renders the popup panel for the current marker.
func (m Model) renderPopup(width int) string {
	title := styleHeader.Render("POPUP")

	if m.marker == nil {
		return title + "\n" + styleMuted.Render(wrap("Select a point to see its address and today's sunrise and sunset.", width))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styleMuted.Render("◉ " + m.marker.ev.String()))
	b.WriteString("\n\n")

	switch {
	case m.marker.loading:
		b.WriteString(m.spinner.View())
		b.WriteString(styleLoading.Render(m.marker.content))
	case m.marker.content == output.FallbackMessage:
		b.WriteString(styleError.Render(wrap(m.marker.content, width)))
	default:
		b.WriteString(renderPopupContent(m.marker.content, width))
	}
	return b.String()
}

// renderPopupContent styles the "label: value" lines of a text popup.
func renderPopupContent(content string, width int) string {
	valueStyles := map[string]lipgloss.Style{
		output.LabelSunrise: styleSunrise,
		output.LabelSunset:  styleSunset,
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			lines = append(lines, wrap(line, width))
			continue
		}
		value = strings.TrimSpace(value)
		style, known := valueStyles[label]
		if !known {
			style = lipgloss.NewStyle()
		}
		if value == models.NotAvailable {
			style = styleMuted
		}
		lines = append(lines, styleLabel.Render(label))
		lines = append(lines, "  "+style.Render(wrap(value, width-2)))
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar renders key hints and the data attribution.
func (m Model) renderStatusBar() string {
	hints := m.help.View(m.keys)
	if m.showHelp {
		return styleStatusBar.Width(m.width).Render(hints + "\n" + attribution)
	}

	gap := m.width - lipgloss.Width(hints) - lipgloss.Width(attribution) - 2
	if gap < 1 {
		return styleStatusBar.Width(m.width).Render(" " + hints)
	}
	return styleStatusBar.Width(m.width).Render(" " + hints + strings.Repeat(" ", gap) + attribution)
}

// round keeps four decimals, about 10 m.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// wrap breaks s into lines of at most width runes on spaces.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var lines []string
	var line string
	for _, word := range strings.Fields(s) {
		switch {
		case line == "":
			line = word
		case len([]rune(line))+1+len([]rune(word)) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// truncateStyled limits a styled line to width cells.
func truncateStyled(s string, width int) string {
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
