package minutes

import (
	"strings"
	"unicode/utf8"
)

// Stats summarizes a document.
type Stats struct {
	TotalDuration  float64 `json:"total_duration"` // end of the last segment, in seconds
	SegmentCount   int     `json:"segment_count"`
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
}

func (d *Document) Stats() Stats {
	text := d.Text()
	st := Stats{
		SegmentCount:   len(d.segments),
		WordCount:      len(strings.Fields(text)),
		CharacterCount: utf8.RuneCountInString(text),
	}
	if n := len(d.segments); n > 0 {
		st.TotalDuration = d.segments[n-1].End
	}
	return st
}
