package tui

import (
	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

// markerPlacedMsg is sent when the pipeline attaches a marker for a selection.
type markerPlacedMsg struct {
	ref     pipeline.MarkerRef
	ev      models.SelectionEvent
	content string
}

// markerUpdatedMsg carries the rendered popup content for a marker.
type markerUpdatedMsg struct {
	ref     pipeline.MarkerRef
	content string
}

// markerRemovedMsg is sent when a marker is detached.
type markerRemovedMsg struct {
	ref pipeline.MarkerRef
}
