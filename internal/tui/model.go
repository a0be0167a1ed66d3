package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

type focusPanel int

const (
	focusMap focusPanel = iota
	focusPrompt
)

// Selector receives the selections made on the map. *pipeline.Pipeline implements it.
type Selector interface {
	Select(ev models.SelectionEvent) bool
}

// markerState is the marker currently shown on the map.
type markerState struct {
	ref     pipeline.MarkerRef
	ev      models.SelectionEvent
	content string
	loading bool
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	selector Selector
	width    int
	height   int

	view      viewport
	cursorCol int
	cursorRow int

	// selectSeq numbers selections so the pipeline can drop reordered ones
	selectSeq int64
	marker    *markerState

	focus     focusPanel
	prompt    textinput.Model
	promptErr error

	spinner  spinner.Model
	keys     keyMap
	help     help.Model
	showHelp bool
}

// New creates a new TUI model centred on (lat, lng).
func New(selector Selector, lat, lng float64) Model {
	ti := textinput.New()
	ti.Placeholder = "13.41:122.56"
	ti.CharLimit = 40
	ti.Width = 30

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styleLoading

	return Model{
		selector: selector,
		view: viewport{
			centerLat: clampLat(lat),
			centerLng: wrapLng(lng),
			zoom:      defaultZoom,
		},
		focus:   focusMap,
		prompt:  ti,
		spinner: sp,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// cursorCoord returns the coordinate under the cursor.
func (m Model) cursorCoord() (float64, float64) {
	return m.view.cellToCoord(m.cursorCol, m.cursorRow)
}
