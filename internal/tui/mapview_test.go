package tui

import (
	"strings"
	"testing"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/testutil"
)

func testViewport() viewport {
	return viewport{centerLat: 50.94, centerLng: 6.96, zoom: 8, width: 60, height: 20}
}

func TestViewport_CellRoundTrip(t *testing.T) {
	v := testViewport()

	for _, cell := range [][2]int{{0, 0}, {30, 10}, {59, 19}, {12, 7}} {
		lat, lng := v.cellToCoord(cell[0], cell[1])
		col, row, ok := v.coordToCell(lat, lng)
		testutil.AssertTrue(t, ok)
		testutil.AssertEqual(t, col, cell[0])
		testutil.AssertEqual(t, row, cell[1])
	}
}

func TestViewport_Center(t *testing.T) {
	v := testViewport()
	lat, lng := v.cellToCoord(v.width/2, v.height/2)
	testutil.AssertFloatEqual(t, lat, 50.94, 1e-9)
	testutil.AssertFloatEqual(t, lng, 6.96, 1e-9)
}

func TestViewport_OffScreen(t *testing.T) {
	v := testViewport()
	_, _, ok := v.coordToCell(-33.86, 151.2)
	testutil.AssertFalse(t, ok)
}

func TestViewport_Scale(t *testing.T) {
	v := testViewport()
	testutil.AssertFloatEqual(t, v.degPerRow(), 2*v.degPerCol(), 1e-12)

	zoomed := v.zoomBy(1)
	testutil.AssertFloatEqual(t, zoomed.degPerCol(), v.degPerCol()/2, 1e-12)
}

func TestViewport_ZoomClamp(t *testing.T) {
	v := testViewport()
	testutil.AssertEqual(t, v.zoomBy(100).zoom, maxZoom)
	testutil.AssertEqual(t, v.zoomBy(-100).zoom, minZoom)
}

func TestViewport_Pan(t *testing.T) {
	v := testViewport()
	p := v.pan(4, -2)
	testutil.AssertFloatEqual(t, p.centerLng, 6.96+4*v.degPerCol(), 1e-9)
	testutil.AssertFloatEqual(t, p.centerLat, 50.94+2*v.degPerRow(), 1e-9)

	// the antimeridian wraps
	v.centerLng = 179.99
	testutil.AssertTrue(t, v.pan(10, 0).centerLng < 0)
}

func TestViewport_GraticuleStep(t *testing.T) {
	v := testViewport()
	step := v.graticuleStep()
	testutil.AssertTrue(t, step >= v.degPerCol()*10)

	v.zoom = minZoom
	testutil.AssertTrue(t, v.graticuleStep() >= 10)
}

func TestWrapLng(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179, 179},
		{181, -179},
		{-181, 179},
		{540, -180},
		{-725, -5},
	}

	for _, tt := range tests {
		testutil.AssertFloatEqual(t, wrapLng(tt.in), tt.want, 1e-9)
	}
}

func TestClampLat(t *testing.T) {
	testutil.AssertEqual(t, clampLat(95), 90.0)
	testutil.AssertEqual(t, clampLat(-91), -90.0)
	testutil.AssertEqual(t, clampLat(12.5), 12.5)
}

func TestCrosses(t *testing.T) {
	testutil.AssertTrue(t, crosses(9.9, 10.1, 1))
	testutil.AssertTrue(t, crosses(10.1, 9.9, 1))
	testutil.AssertFalse(t, crosses(10.1, 10.9, 1))
}

func TestRenderMap(t *testing.T) {
	v := testViewport()
	marker := &markerState{ev: models.SelectionEvent{Lat: 50.94, Lng: 6.96 + 5*v.degPerCol()}}

	out := plain(renderMap(v, 30, 10, marker))
	lines := strings.Split(out, "\n")
	testutil.AssertLen(t, lines, v.height)
	for _, line := range lines {
		testutil.AssertEqual(t, len([]rune(line)), v.width)
	}

	testutil.AssertEqual(t, []rune(lines[10])[30], '╋')
	testutil.AssertEqual(t, []rune(lines[10])[35], '◉')
}

func TestRenderMap_MarkerOffScreen(t *testing.T) {
	v := testViewport()
	marker := &markerState{ev: models.SelectionEvent{Lat: -33.86, Lng: 151.2}}

	out := plain(renderMap(v, 0, 0, marker))
	testutil.AssertNotContains(t, out, "◉")
	testutil.AssertContains(t, out, "╋")
}

func TestRenderMap_TooSmall(t *testing.T) {
	v := viewport{zoom: 5, width: 2, height: 2}
	testutil.AssertEqual(t, renderMap(v, 0, 0, nil), "")
}
