package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

type lookupMode int

const (
	lookupText lookupMode = iota
	lookupJSON
	lookupRawJSON
	lookupHTML
)

type lookupRequest struct {
	Event   models.SelectionEvent
	Mode    lookupMode
	Colors  *output.Colors
	Logger  *slog.Logger
	Timeout time.Duration
	Escape  bool
}

// lookup runs one selection and writes it to w in the requested mode.
// It returns errFallback when the fallback message was written.
func lookup(ctx context.Context, w io.Writer, fetcher pipeline.Fetcher, req lookupRequest) error {
	if req.Mode == lookupRawJSON {
		return lookupRaw(ctx, w, fetcher, req)
	}

	var rec models.DisplayRecord
	render := func(r models.DisplayRecord) string {
		rec = r
		switch {
		case req.Mode == lookupHTML && req.Escape:
			return output.RenderPopupEscaped(r)
		case req.Mode == lookupHTML:
			return output.RenderPopup(r)
		default:
			return output.RenderPopupText(r)
		}
	}

	opts := []pipeline.Option{
		pipeline.WithRenderer(render),
		pipeline.WithLogger(req.Logger),
		pipeline.WithSelectionTimeout(req.Timeout),
	}
	res, err := pipeline.Once(ctx, fetcher, req.Event, opts...)
	if err != nil {
		return err
	}

	if res.Fallback {
		if req.Mode == lookupJSON {
			_ = printJSON(w, map[string]string{"error": output.FallbackMessage})
		} else {
			output.RenderFallbackColored(w, req.Colors)
		}
		return errFallback
	}

	switch req.Mode {
	case lookupJSON:
		return printJSON(w, rec)
	case lookupHTML:
		_, err := fmt.Fprintln(w, res.Content)
		return err
	default:
		output.RenderPopupColored(w, rec, req.Colors)
		return nil
	}
}

// lookupRaw joins both fetches and prints the untouched payloads.
func lookupRaw(ctx context.Context, w io.Writer, fetcher pipeline.Fetcher, req lookupRequest) error {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	ev := req.Event
	agg, err := pipeline.Join(ctx,
		fetcher.GeocodingTask(ctx, ev.Lat, ev.Lng),
		fetcher.SunriseSunsetTask(ctx, ev.Lat, ev.Lng),
	)
	if err != nil {
		if req.Logger != nil {
			req.Logger.Warn("lookup failed", "error", err)
		}
		_ = printJSON(w, map[string]string{"error": output.FallbackMessage})
		return errFallback
	}
	return printJSON(w, agg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
