package transcribe

import (
	"math"
	"strings"

	"github.com/petems/recordnote/internal/apperr"
)

// Validate checks a recognizer batch and numbers the result. A batch with a
// malformed, unordered or overlapping segment is rejected as a whole.
// Segments without text are skipped after the ordering checks.
func Validate(raw []RawSegment) ([]Segment, error) {
	for i, r := range raw {
		if !finite(r.Start) || !finite(r.End) || r.Start < 0 || r.End < r.Start {
			return nil, apperr.Inference(apperr.ReasonMalformed, nil,
				"segment %d has invalid bounds [%g, %g]", i, r.Start, r.End)
		}
		if i == 0 {
			continue
		}
		prev := raw[i-1]
		if r.Start < prev.Start {
			return nil, apperr.Inference(apperr.ReasonUnordered, nil,
				"segment %d starts at %gs before segment %d at %gs", i, r.Start, i-1, prev.Start)
		}
		if r.Start < prev.End {
			return nil, apperr.Inference(apperr.ReasonOverlap, nil,
				"segment %d starts at %gs before segment %d ends at %gs", i, r.Start, i-1, prev.End)
		}
	}

	out := make([]Segment, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		out = append(out, Segment{
			Index: len(out),
			Text:  text,
			Start: r.Start,
			End:   r.End,
		})
	}

	if len(out) == 0 {
		return nil, apperr.Inference(apperr.ReasonNoSegments, nil, "recognizer returned no usable segments")
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
