package minutes

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/petems/recordnote/internal/transcribe"
)

var stampedLine = regexp.MustCompile(`^\[(\d+):([0-5]\d):([0-5]\d)\] (.+)$`)

type exactSegment struct {
	start, end float64
}

// Parse reads minutes written by Serialize. Files without the trailing
// metadata comment still parse: each segment starts at its stamped second
// and ends where the next one starts.
func Parse(data []byte) (*Document, error) {
	var (
		meta      Metadata
		haveTitle bool
		section   string
		inMeta    bool
		stamps    []float64
		texts     []string
		exact     []exactSegment
		exactDate time.Time
		haveDate  bool
		exactDur  *time.Duration
	)

	lines := strings.Split(string(data), "\n")
	for n, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		lineNo := n + 1

		if inMeta {
			if strings.TrimSpace(line) == metaClose {
				inMeta = false
				continue
			}
			key, value, ok := strings.Cut(line, ": ")
			if !ok {
				return nil, fmt.Errorf("line %d: malformed metadata %q", lineNo, line)
			}
			switch key {
			case "date":
				t, err := time.Parse(time.RFC3339, value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				exactDate = t
				haveDate = true
			case "duration":
				d, err := time.ParseDuration(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				exactDur = &d
			case "segment":
				seg, err := parseExactSegment(value, len(exact))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				exact = append(exact, seg)
			}
			continue
		}

		switch {
		case line == metaOpen && section == sectionSegments:
			inMeta = true
		case !haveTitle && strings.HasPrefix(line, "# "):
			meta.Title = strings.TrimPrefix(line, "# ")
			haveTitle = true
		case line == sectionText || line == sectionSegments:
			section = line
		case section != "":
			if section != sectionSegments {
				continue
			}
			m := stampedLine.FindStringSubmatch(line)
			if m == nil {
				if strings.TrimSpace(line) != "" {
					return nil, fmt.Errorf("line %d: expected \"[HH:MM:SS] text\", got %q", lineNo, line)
				}
				continue
			}
			hh, _ := strconv.Atoi(m[1])
			mm, _ := strconv.Atoi(m[2])
			ss, _ := strconv.Atoi(m[3])
			stamps = append(stamps, float64(hh*3600+mm*60+ss))
			texts = append(texts, m[4])
		case strings.HasPrefix(line, labelDate):
			t, err := time.ParseInLocation(headerDateLayout, strings.TrimPrefix(line, labelDate), time.Local)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			meta.Date = t
		case strings.HasPrefix(line, labelDuration):
			d, err := parseClock(strings.TrimPrefix(line, labelDuration))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			meta.Duration = d
		case strings.HasPrefix(line, labelLanguage):
			meta.Language = strings.TrimPrefix(line, labelLanguage)
		}
	}

	if inMeta {
		return nil, errors.New("unterminated metadata comment")
	}
	if !haveTitle {
		return nil, errors.New("missing title line")
	}
	if len(texts) == 0 {
		return nil, ErrNoSegments
	}

	if haveDate {
		meta.Date = exactDate
	}
	if exactDur != nil {
		meta.Duration = *exactDur
	}

	segments := make([]transcribe.Segment, len(texts))
	switch {
	case len(exact) == 0:
		for i := range texts {
			end := meta.Duration.Seconds()
			if i+1 < len(stamps) {
				end = stamps[i+1]
			}
			if end < stamps[i] {
				end = stamps[i]
			}
			segments[i] = transcribe.Segment{Index: i, Text: texts[i], Start: stamps[i], End: end}
		}
	case len(exact) == len(texts):
		for i := range texts {
			if FormatTimestamp(exact[i].start) != FormatTimestamp(stamps[i]) {
				return nil, fmt.Errorf("segment %d: stamped %s but metadata starts at %gs",
					i, FormatTimestamp(stamps[i]), exact[i].start)
			}
			segments[i] = transcribe.Segment{Index: i, Text: texts[i], Start: exact[i].start, End: exact[i].end}
		}
	default:
		return nil, fmt.Errorf("metadata lists %d segments but %d lines are stamped", len(exact), len(texts))
	}

	return Assemble(meta, segments)
}

func parseExactSegment(value string, want int) (exactSegment, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 {
		return exactSegment{}, fmt.Errorf("segment metadata needs index, start and end: %q", value)
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return exactSegment{}, err
	}
	if idx != want {
		return exactSegment{}, fmt.Errorf("segment metadata out of order: got %d, want %d", idx, want)
	}
	start, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return exactSegment{}, err
	}
	end, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return exactSegment{}, err
	}
	return exactSegment{start: start, end: end}, nil
}

func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", s)
	}
	var total int
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("expected HH:MM:SS, got %q", s)
		}
		total = total*60 + v
	}
	return time.Duration(total) * time.Second, nil
}
