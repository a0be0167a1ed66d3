package output

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/mobil-koeln/sunmap/internal/models"
)

// FallbackMessage replaces the popup content whenever a selection fails.
const FallbackMessage = "We have experienced some issues please try again later."

// LoadingMessage is shown in a freshly placed marker until its content arrives.
const LoadingMessage = "Loading data... Please wait.."

// TimestampLayout matches how browsers print a Date, minus the zone name.
const TimestampLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

const notAvailable = models.NotAvailable

// Popup labels, in display order.
const (
	LabelAddress = "Address"
	LabelSunrise = "Today's Sunrise"
	LabelSunset  = "Today's Sunset"
)

// RenderFunc turns a DisplayRecord into popup content.
type RenderFunc func(rec models.DisplayRecord) string

// FormatTimestamp formats t in the local time zone. A nil time is N/A.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.Local().Format(TimestampLayout)
}

type popupField struct {
	label string
	value string
}

func popupFields(rec models.DisplayRecord) []popupField {
	sunrise, sunset := notAvailable, notAvailable
	if rec.HasSunTimes() {
		sunrise = FormatTimestamp(rec.Sunrise)
		sunset = FormatTimestamp(rec.Sunset)
	}

	return []popupField{
		{LabelAddress, rec.AddressLine},
		{LabelSunrise, sunrise},
		{LabelSunset, sunset},
	}
}

// RenderPopup renders the record as a <dl> description list.
// Values are interpolated as-is; see RenderPopupEscaped for untrusted sinks.
func RenderPopup(rec models.DisplayRecord) string {
	return renderMarkup(rec, func(s string) string { return s })
}

// RenderPopupEscaped is RenderPopup with every value HTML-escaped.
func RenderPopupEscaped(rec models.DisplayRecord) string {
	return renderMarkup(rec, html.EscapeString)
}

func renderMarkup(rec models.DisplayRecord, escape func(string) string) string {
	var b strings.Builder
	b.WriteString("<dl>")
	for _, f := range popupFields(rec) {
		b.WriteString("<dt>")
		b.WriteString(f.label)
		b.WriteString("</dt><dd>")
		b.WriteString(escape(f.value))
		b.WriteString("</dd>")
	}
	b.WriteString("</dl>")
	return b.String()
}

// RenderPopupText renders the record as aligned "label: value" lines.
func RenderPopupText(rec models.DisplayRecord) string {
	var b strings.Builder
	for i, f := range popupFields(rec) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-16s %s", f.label+":", f.value)
	}
	return b.String()
}

// RenderPopupColored writes the text rendering of rec to w using c.
func RenderPopupColored(w io.Writer, rec models.DisplayRecord, c *Colors) {
	if c == nil {
		c = NewColors(ColorNever)
	}

	fields := popupFields(rec)
	valueColors := []func(string, ...interface{}) string{c.Address, c.Sunrise, c.Sunset}
	for i, f := range fields {
		label := c.Label("%-16s", f.label+":")
		_, _ = fmt.Fprintf(w, "%s %s\n", label, c.Value(valueColors[i], f.value))
	}
}

// RenderFallbackColored writes the fallback message to w.
func RenderFallbackColored(w io.Writer, c *Colors) {
	if c == nil {
		c = NewColors(ColorNever)
	}
	_, _ = fmt.Fprintln(w, c.Error("%s", FallbackMessage))
}
