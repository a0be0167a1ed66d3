package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minZoom     = 1
	maxZoom     = 14
	defaultZoom = 6

	// terminal cells are roughly twice as tall as they are wide
	cellAspect = 2.0
)

// graticule steps in degrees, smallest first
var graticuleSteps = []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 15, 30, 45, 90}

type mapCellType int

const (
	mapCellEmpty mapCellType = iota
	mapCellGraticule
	mapCellCursor
	mapCellMarker
)

type mapCell struct {
	ch    rune
	ctype mapCellType
}

// viewport is an equirectangular window onto the globe.
type viewport struct {
	centerLat float64
	centerLng float64
	zoom      int
	width     int
	height    int
}

// degPerCol is the longitude span of one cell at the current zoom.
func (v viewport) degPerCol() float64 {
	return 360.0 / (64.0 * math.Pow(2, float64(v.zoom)))
}

func (v viewport) degPerRow() float64 {
	return v.degPerCol() * cellAspect
}

// cellToCoord returns the coordinate at the centre of a cell.
func (v viewport) cellToCoord(col, row int) (float64, float64) {
	lng := v.centerLng + float64(col-v.width/2)*v.degPerCol()
	lat := v.centerLat - float64(row-v.height/2)*v.degPerRow()
	return clampLat(lat), wrapLng(lng)
}

// coordToCell returns the cell showing a coordinate and whether it is on screen.
func (v viewport) coordToCell(lat, lng float64) (int, int, bool) {
	dLng := wrapLng(lng - v.centerLng)
	col := v.width/2 + int(math.Round(dLng/v.degPerCol()))
	row := v.height/2 + int(math.Round((v.centerLat-lat)/v.degPerRow()))
	if col < 0 || col >= v.width || row < 0 || row >= v.height {
		return col, row, false
	}
	return col, row, true
}

// pan moves the centre by whole cells.
func (v viewport) pan(dCol, dRow int) viewport {
	v.centerLng = wrapLng(v.centerLng + float64(dCol)*v.degPerCol())
	v.centerLat = clampLat(v.centerLat - float64(dRow)*v.degPerRow())
	return v
}

func (v viewport) zoomBy(delta int) viewport {
	v.zoom += delta
	if v.zoom < minZoom {
		v.zoom = minZoom
	}
	if v.zoom > maxZoom {
		v.zoom = maxZoom
	}
	return v
}

// graticuleStep picks a line spacing of roughly ten cells.
func (v viewport) graticuleStep() float64 {
	target := v.degPerCol() * 10
	for _, s := range graticuleSteps {
		if s >= target {
			return s
		}
	}
	return graticuleSteps[len(graticuleSteps)-1]
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

func wrapLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// crosses reports whether a multiple of step lies in [a, b).
func crosses(a, b, step float64) bool {
	if a > b {
		a, b = b, a
	}
	return math.Floor(a/step) != math.Floor(b/step)
}

// renderMap draws the graticule, the cursor and the marker (if any).
func renderMap(v viewport, cursorCol, cursorRow int, marker *markerState) string {
	if v.width < 3 || v.height < 3 {
		return ""
	}

	step := v.graticuleStep()
	halfCol := v.degPerCol() / 2
	halfRow := v.degPerRow() / 2

	// Create grid
	grid := make([][]mapCell, v.height)
	for r := 0; r < v.height; r++ {
		grid[r] = make([]mapCell, v.width)
		for c := 0; c < v.width; c++ {
			lat, lng := v.cellToCoord(c, r)
			onMeridian := crosses(lng-halfCol, lng+halfCol, step)
			onParallel := crosses(lat-halfRow, lat+halfRow, step)
			switch {
			case onMeridian && onParallel:
				grid[r][c] = mapCell{ch: '+', ctype: mapCellGraticule}
			case onMeridian || onParallel:
				grid[r][c] = mapCell{ch: '·', ctype: mapCellGraticule}
			default:
				grid[r][c] = mapCell{ch: ' ', ctype: mapCellEmpty}
			}
		}
	}

	if cursorRow >= 0 && cursorRow < v.height && cursorCol >= 0 && cursorCol < v.width {
		grid[cursorRow][cursorCol] = mapCell{ch: '╋', ctype: mapCellCursor}
	}

	if marker != nil {
		if col, row, ok := v.coordToCell(marker.ev.Lat, marker.ev.Lng); ok {
			grid[row][col] = mapCell{ch: '◉', ctype: mapCellMarker}
		}
	}

	// Render grid to styled string
	graticuleStyle := lipgloss.NewStyle().Foreground(colorGray)
	cursorStyle := lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	var b strings.Builder
	for r := 0; r < v.height; r++ {
		var line strings.Builder
		for c := 0; c < v.width; c++ {
			ch := string(grid[r][c].ch)
			switch grid[r][c].ctype {
			case mapCellGraticule:
				line.WriteString(graticuleStyle.Render(ch))
			case mapCellCursor:
				line.WriteString(cursorStyle.Render(ch))
			case mapCellMarker:
				line.WriteString(markerStyle.Render(ch))
			default:
				line.WriteString(ch)
			}
		}
		b.WriteString(line.String())
		if r < v.height-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
