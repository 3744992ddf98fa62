package minutes

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/petems/recordnote/internal/transcribe"
)

var meetingDate = time.Date(2026, 10, 16, 14, 30, 5, 750_000_000, time.FixedZone("JST", 9*3600))

func greetingSegments() []transcribe.Segment {
	return []transcribe.Segment{
		{Index: 0, Text: "こんにちは", Start: 0.0, End: 0.6},
		{Index: 1, Text: "よろしく", Start: 0.6, End: 1.2},
	}
}

func TestAssembleGreetingScenario(t *testing.T) {
	doc, err := Assemble(Metadata{
		Title:    "定例会議",
		Date:     meetingDate,
		Duration: 1200 * time.Millisecond,
	}, greetingSegments())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	expected := []string{
		"[00:00:00] こんにちは",
		"[00:00:00] よろしく",
	}
	lines := doc.Lines()
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}

	if doc.Language() != "ja" {
		t.Errorf("expected default language ja, got %q", doc.Language())
	}
	if doc.Date().Nanosecond() != 0 {
		t.Errorf("expected date truncated to seconds, got %v", doc.Date())
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	meta := Metadata{Title: "a", Date: meetingDate, Duration: time.Second, Language: "ja"}
	first, err := Assemble(meta, greetingSegments())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Assemble(meta, greetingSegments())
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Fatal("identical inputs produced different documents")
	}
	if string(Serialize(first)) != string(Serialize(second)) {
		t.Fatal("identical documents serialized differently")
	}
}

func TestAssembleDoesNotShareSegments(t *testing.T) {
	segs := greetingSegments()
	doc, err := Assemble(Metadata{Date: meetingDate}, segs)
	if err != nil {
		t.Fatal(err)
	}

	segs[0].Text = "changed"
	got := doc.Segments()
	got[1].Text = "also changed"

	if doc.Segments()[0].Text != "こんにちは" || doc.Segments()[1].Text != "よろしく" {
		t.Fatal("document was mutated through a shared slice")
	}
}

func TestAssembleNormalizesText(t *testing.T) {
	doc, err := Assemble(Metadata{Title: "  週次\n会議 ", Date: meetingDate}, []transcribe.Segment{
		{Index: 0, Text: "これは　　テスト　です。", Start: 0, End: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Segments()[0].Text; got != "これは テスト です。" {
		t.Errorf("unexpected text %q", got)
	}
	if doc.Title() != "週次 会議" {
		t.Errorf("unexpected title %q", doc.Title())
	}
}

func TestAssembleDefaultTitle(t *testing.T) {
	doc, err := Assemble(Metadata{Date: meetingDate}, greetingSegments())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title() != DefaultTitle {
		t.Errorf("expected %q, got %q", DefaultTitle, doc.Title())
	}
}

func TestAssembleRejects(t *testing.T) {
	tests := []struct {
		name     string
		segments []transcribe.Segment
		want     error
	}{
		{"empty", nil, ErrNoSegments},
		{"overlap", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 0, End: 2},
			{Index: 1, Text: "b", Start: 1, End: 3},
		}, ErrInvalidSegments},
		{"index gap", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 0, End: 1},
			{Index: 2, Text: "b", Start: 1, End: 2},
		}, ErrInvalidSegments},
		{"end before start", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 2, End: 1},
		}, ErrInvalidSegments},
		{"blank text", []transcribe.Segment{
			{Index: 0, Text: "   ", Start: 0, End: 1},
		}, ErrInvalidSegments},
		{"infinite end", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 0, End: math.Inf(1)},
		}, ErrInvalidSegments},
		{"infinite start", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 0, End: 1},
			{Index: 1, Text: "b", Start: math.Inf(1), End: math.Inf(1)},
		}, ErrInvalidSegments},
		{"offset beyond clock range", []transcribe.Segment{
			{Index: 0, Text: "a", Start: 0, End: 1e12},
		}, ErrInvalidSegments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Assemble(Metadata{Date: meetingDate}, tt.segments)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if doc != nil {
				t.Fatal("expected no document")
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{0.6, "00:00:00"},
		{0.999, "00:00:00"},
		{59.99, "00:00:59"},
		{65, "00:01:05"},
		{3661.5, "01:01:01"},
		{36000, "10:00:00"},
		{-3, "00:00:00"},
		{math.NaN(), "00:00:00"},
		{math.Inf(1), "2562047:47:16"},
		{1e300, "2562047:47:16"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(1*time.Hour + 2*time.Minute + 3900*time.Millisecond); got != "01:02:03" {
		t.Errorf("unexpected %q", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"whitespace", "これは　　テスト　です。", "これは テスト です。"},
		{
			"paragraphs every two sentences",
			"これは  テストです。  次の文章です！  最後の文章です？",
			"これは テストです。 次の文章です！\n\n最後の文章です？",
		},
		{"trailing text kept", "一文目。まだ続く", "一文目。 まだ続く"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	doc, err := Assemble(Metadata{Date: meetingDate}, []transcribe.Segment{
		{Index: 0, Text: "これは テスト です。", Start: 0, End: 2},
		{Index: 1, Text: "hello world", Start: 2, End: 3.5},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := doc.Stats()
	if st.TotalDuration != 3.5 || st.SegmentCount != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.WordCount != 5 {
		t.Errorf("expected 5 words, got %d", st.WordCount)
	}
	if want := len([]rune(doc.Text())); st.CharacterCount != want {
		t.Errorf("expected %d characters, got %d", want, st.CharacterCount)
	}
	if !strings.Contains(doc.Text(), "hello world") {
		t.Errorf("unexpected text %q", doc.Text())
	}
}

func TestAssembleLargestOffsetRoundTrips(t *testing.T) {
	doc, err := Assemble(Metadata{Date: meetingDate}, []transcribe.Segment{
		{Index: 0, Text: "a", Start: 0, End: 1},
		{Index: 1, Text: "b", Start: MaxOffset, End: MaxOffset},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := doc.Lines()[1]; got != "[2562047:47:16] b" {
		t.Errorf("unexpected line %q", got)
	}

	back, err := Parse(Serialize(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(doc) {
		t.Error("document at the offset limit does not round-trip")
	}
}
