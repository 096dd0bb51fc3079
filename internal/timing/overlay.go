// Package timing keeps the user's per-snippet start/end shifts apart from
// the snippets themselves until the set is submitted for rendering.
package timing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
)

type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// ParseField accepts the short and the wire spelling of a shift field.
func ParseField(s string) (Field, error) {
	switch strings.TrimSpace(s) {
	case "start", "shiftStart":
		return FieldStart, nil
	case "end", "shiftEnd":
		return FieldEnd, nil
	default:
		return "", apperr.Validation("field", fmt.Sprintf("%q is not start or end", s))
	}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Coerce reads the leading decimal number of value. Anything unparseable,
// and any non-finite result, is 0.
func Coerce(value string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(value))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

type Entry = mediaservice.TimedSnippet

// Overlay holds one shift pair per snippet of the working set it was built
// from. It is not safe for concurrent use.
type Overlay struct {
	entries []Entry
}

// New builds an overlay with zero shifts over a copy of snippets.
func New(snippets []mediaservice.Snippet) *Overlay {
	entries := make([]Entry, len(snippets))
	for i, s := range snippets {
		entries[i] = Entry{Snippet: s}
	}
	return &Overlay{entries: entries}
}

func (o *Overlay) Len() int { return len(o.entries) }

// SetShift stores the coerced value as the start or end shift of the entry
// at index. It returns the value actually stored.
func (o *Overlay) SetShift(index int, field Field, value string) (float64, error) {
	if index < 0 || index >= len(o.entries) {
		return 0, &apperr.RangeError{What: "snippet", Index: index, Len: len(o.entries)}
	}
	v := Coerce(value)
	switch field {
	case FieldStart:
		o.entries[index].ShiftStart = v
	case FieldEnd:
		o.entries[index].ShiftEnd = v
	default:
		return 0, apperr.Validation("field", fmt.Sprintf("%q is not start or end", field))
	}
	return v, nil
}

// Entries returns a copy of the current entries.
func (o *Overlay) Entries() []Entry {
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Finalize returns the full timed sequence for submission. Shifts are passed
// through as entered; nothing is clamped.
func (o *Overlay) Finalize() []mediaservice.TimedSnippet {
	return o.Entries()
}

// Validate reports the first entry whose shifted range is empty, inverted or
// starts or ends before zero.
func (o *Overlay) Validate() error {
	for i, e := range o.entries {
		start, end := e.EffectiveStart(), e.EffectiveEnd()
		if start < 0 || end < 0 {
			return apperr.Validation(fmt.Sprintf("snippet %d", i), fmt.Sprintf("shifted range %.2f..%.2f is negative", start, end))
		}
		if end <= start {
			return apperr.Validation(fmt.Sprintf("snippet %d", i), fmt.Sprintf("shifted end %.2f is not after start %.2f", end, start))
		}
	}
	return nil
}

// Matches reports whether the overlay was built from the same working set.
func (o *Overlay) Matches(snippets []mediaservice.Snippet) bool {
	if len(snippets) != len(o.entries) {
		return false
	}
	for i, s := range snippets {
		e := o.entries[i].Snippet
		if e.Text != s.Text || e.Start != s.Start || e.End != s.End || e.VideoURL != s.VideoURL {
			return false
		}
	}
	return true
}
