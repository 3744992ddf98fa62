// Package minutes assembles validated transcript segments into an immutable
// meeting-minutes document and converts it to and from markdown.
package minutes

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/petems/recordnote/internal/transcribe"
)

// DefaultTitle is used when a session has no title.
const DefaultTitle = "会議録"

// MaxOffset is the largest segment offset, in seconds, that still renders
// as a timestamp and reads back as a time.Duration.
const MaxOffset = float64(math.MaxInt64 / int64(time.Second))

var (
	ErrNoSegments      = errors.New("minutes need at least one segment")
	ErrInvalidSegments = errors.New("segments are not ordered and non-overlapping")
)

// Metadata describes the session a document was recorded in.
type Metadata struct {
	Title    string
	Date     time.Time
	Duration time.Duration
	Language string
}

// Document is an assembled set of minutes. It cannot be changed once built;
// accessors hand out copies.
type Document struct {
	meta     Metadata
	segments []transcribe.Segment
}

// Assemble builds a Document. It is deterministic: the same metadata and
// segments always give an equal document. Segment text has its whitespace
// collapsed, the date is truncated to whole seconds, and segments must be
// indexed 0..n-1, ordered and non-overlapping.
func Assemble(meta Metadata, segments []transcribe.Segment) (*Document, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	meta.Title = normalize(meta.Title)
	if meta.Title == "" {
		meta.Title = DefaultTitle
	}
	meta.Language = strings.TrimSpace(meta.Language)
	if meta.Language == "" {
		meta.Language = transcribe.DefaultLanguage
	}
	meta.Date = meta.Date.Truncate(time.Second)
	if meta.Duration < 0 {
		return nil, fmt.Errorf("negative duration %s", meta.Duration)
	}

	out := make([]transcribe.Segment, len(segments))
	for i, s := range segments {
		if s.Index != i {
			return nil, fmt.Errorf("%w: segment %d has index %d", ErrInvalidSegments, i, s.Index)
		}
		if !validOffset(s.Start) || !validOffset(s.End) || s.End < s.Start {
			return nil, fmt.Errorf("%w: segment %d has bounds [%g, %g]", ErrInvalidSegments, i, s.Start, s.End)
		}
		if i > 0 && s.Start < segments[i-1].End {
			return nil, fmt.Errorf("%w: segment %d starts at %gs before %gs", ErrInvalidSegments, i, s.Start, segments[i-1].End)
		}
		s.Text = normalize(s.Text)
		if s.Text == "" {
			return nil, fmt.Errorf("%w: segment %d has no text", ErrInvalidSegments, i)
		}
		out[i] = s
	}

	return &Document{meta: meta, segments: out}, nil
}

func validOffset(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= MaxOffset
}

// normalize composes the text to NFC and collapses whitespace runs,
// including ideographic spaces, to a single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func (d *Document) Metadata() Metadata { return d.meta }
func (d *Document) Title() string      { return d.meta.Title }
func (d *Document) Date() time.Time    { return d.meta.Date }
func (d *Document) Language() string   { return d.meta.Language }

func (d *Document) Duration() time.Duration { return d.meta.Duration }

// Segments returns a copy of the ordered segments.
func (d *Document) Segments() []transcribe.Segment {
	out := make([]transcribe.Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

func (d *Document) Len() int { return len(d.segments) }

// Lines renders one "[HH:MM:SS] text" line per segment.
func (d *Document) Lines() []string {
	lines := make([]string, len(d.segments))
	for i, s := range d.segments {
		lines[i] = fmt.Sprintf("[%s] %s", FormatTimestamp(s.Start), s.Text)
	}
	return lines
}

// Text is the segment text joined in order.
func (d *Document) Text() string {
	parts := make([]string, len(d.segments))
	for i, s := range d.segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Equal reports whether both documents carry the same metadata and segments.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.meta.Title != other.meta.Title ||
		d.meta.Language != other.meta.Language ||
		d.meta.Duration != other.meta.Duration ||
		!d.meta.Date.Equal(other.meta.Date) {
		return false
	}
	if len(d.segments) != len(other.segments) {
		return false
	}
	for i := range d.segments {
		if d.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// FormatTimestamp renders an offset in seconds as HH:MM:SS, truncating the
// fractional part. Offsets outside [0, MaxOffset] are clamped.
func FormatTimestamp(seconds float64) string {
	switch {
	case seconds < 0 || math.IsNaN(seconds):
		seconds = 0
	case seconds > MaxOffset:
		seconds = MaxOffset
	}
	return formatClock(int64(seconds))
}

// FormatDuration renders d as HH:MM:SS, truncating to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return formatClock(int64(d / time.Second))
}

func formatClock(total int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
