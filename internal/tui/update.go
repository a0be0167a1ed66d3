package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/sunmap/internal/models"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.layout()
		m.view.width = l.mapWidth
		m.view.height = l.mapHeight
		m.cursorCol = l.mapWidth / 2
		m.cursorRow = l.mapHeight / 2
		return m, nil

	case markerPlacedMsg:
		m.marker = &markerState{ref: msg.ref, ev: msg.ev, content: msg.content, loading: true}
		return m, m.spinner.Tick

	case markerUpdatedMsg:
		// Ignore content for markers no longer shown
		if m.marker == nil || m.marker.ref != msg.ref {
			return m, nil
		}
		m.marker.content = msg.content
		m.marker.loading = false
		return m, nil

	case markerRemovedMsg:
		if m.marker != nil && m.marker.ref == msg.ref {
			m.marker = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.marker == nil || !m.marker.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages to textinput when focused
	if m.focus == focusPrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	return m, nil
}

// selectAt starts a new numbered selection.
func (m Model) selectAt(lat, lng float64) (Model, tea.Cmd) {
	m.selectSeq++
	ev := models.SelectionEvent{Lat: lat, Lng: lng, Seq: m.selectSeq}
	return m, selectPoint(m.selector, ev)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return m, nil
	}

	l := m.layout()
	col := msg.X - l.mapLeft
	row := msg.Y - l.mapTop
	if col < 0 || col >= m.view.width || row < 0 || row >= m.view.height {
		return m, nil
	}

	m.focus = focusMap
	m.prompt.Blur()
	m.cursorCol, m.cursorRow = col, row
	lat, lng := m.cursorCoord()
	return m.selectAt(lat, lng)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus == focusPrompt {
		return m.handlePromptKeys(msg)
	}
	return m.handleMapKeys(msg)
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		lat, lng, err := models.ParseCoordinate(m.prompt.Value())
		if err != nil {
			m.promptErr = err
			return m, nil
		}
		m.promptErr = nil
		m.prompt.SetValue("")
		m.prompt.Blur()
		m.focus = focusMap

		m.view.centerLat, m.view.centerLng = lat, lng
		m.cursorCol, m.cursorRow = m.view.width/2, m.view.height/2
		return m.selectAt(lat, lng)

	case "esc":
		m.promptErr = nil
		m.prompt.Blur()
		m.focus = focusMap
		return m, nil
	}

	// Forward to textinput
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleMapKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m = m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m = m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m = m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m = m.moveCursor(1, 0)

	case key.Matches(msg, m.keys.ZoomIn):
		m.view = m.view.zoomBy(1)
	case key.Matches(msg, m.keys.ZoomOut):
		m.view = m.view.zoomBy(-1)

	case key.Matches(msg, m.keys.Center):
		m.view = m.view.pan(m.cursorCol-m.view.width/2, m.cursorRow-m.view.height/2)
		m.cursorCol, m.cursorRow = m.view.width/2, m.view.height/2

	case key.Matches(msg, m.keys.Select):
		lat, lng := m.cursorCoord()
		return m.selectAt(lat, lng)

	case key.Matches(msg, m.keys.Prompt):
		m.focus = focusPrompt
		m.promptErr = nil
		focusCmd := m.prompt.Focus()
		return m, tea.Batch(focusCmd, textinput.Blink)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}

	return m, nil
}

// moveCursor moves the cursor by one cell, panning when it would leave the map.
func (m Model) moveCursor(dCol, dRow int) Model {
	col, row := m.cursorCol+dCol, m.cursorRow+dRow
	if col < 0 || col >= m.view.width || row < 0 || row >= m.view.height {
		m.view = m.view.pan(dCol, dRow)
		return m
	}
	m.cursorCol, m.cursorRow = col, row
	return m
}
