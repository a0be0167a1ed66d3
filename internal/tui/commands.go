package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/sunmap/internal/models"
)

// selectPoint returns a tea.Cmd that hands a selection to the pipeline.
// Commands run concurrently, so ordering is carried by ev.Seq.
func selectPoint(selector Selector, ev models.SelectionEvent) tea.Cmd {
	return func() tea.Msg {
		selector.Select(ev)
		return nil
	}
}
