package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

// popupResponse is the body of GET /api/v1/popup.
type popupResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Content string  `json:"content"`
	OK      bool    `json:"ok"`
}

func (s *Server) handlePopup(c *gin.Context) {
	lat, err := coordinateParam(c, "lat")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lng, err := coordinateParam(c, "lng")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateCoordinate(lat, lng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.pipelineOptions(s.requestLoggerFor(c))
	if c.Query("format") == "text" {
		opts = append(opts, pipeline.WithRenderer(output.RenderPopupText))
	}

	ev := models.SelectionEvent{Lat: lat, Lng: lng}
	res, err := pipeline.Once(c.Request.Context(), s.deps.Fetcher, ev, opts...)
	if err != nil {
		// the client went away before the popup was ready
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, popupResponse{
		Lat:     lat,
		Lng:     lng,
		Content: res.Content,
		OK:      !res.Fallback,
	})
}

func coordinateParam(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, api.ErrMissingField(name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, api.ErrInvalidValue(name, raw)
	}
	return v, nil
}
