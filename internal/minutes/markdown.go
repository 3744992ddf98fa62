package minutes

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	headerDateLayout = "2006年01月02日 15:04:05"

	labelDate     = "**日時**: "
	labelDuration = "**録音時間**: "
	labelLanguage = "**言語**: "

	sectionText     = "## 音声認識結果"
	sectionSegments = "## タイムスタンプ付き詳細"

	metaOpen  = "<!-- recordnote"
	metaClose = "-->"
)

// Serialize renders doc as markdown. The trailing comment block keeps exact
// offsets so Parse can recover the document unchanged.
func Serialize(doc *Document) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", doc.meta.Title)
	fmt.Fprintf(&b, "%s%s\n", labelDate, doc.meta.Date.Format(headerDateLayout))
	fmt.Fprintf(&b, "%s%s\n", labelDuration, FormatDuration(doc.meta.Duration))
	fmt.Fprintf(&b, "%s%s\n\n", labelLanguage, doc.meta.Language)

	fmt.Fprintf(&b, "%s\n\n%s\n\n", sectionText, CleanText(doc.Text()))

	fmt.Fprintf(&b, "%s\n\n", sectionSegments)
	for _, line := range doc.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n%s\n", metaOpen)
	fmt.Fprintf(&b, "date: %s\n", doc.meta.Date.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %s\n", doc.meta.Duration)
	for _, s := range doc.segments {
		fmt.Fprintf(&b, "segment: %d %s %s\n", s.Index, formatFloat(s.Start), formatFloat(s.End))
	}
	fmt.Fprintf(&b, "%s\n", metaClose)

	return b.Bytes()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// CleanText collapses whitespace and lays sentences out two per paragraph.
// Sentences end at 。, ！ or ？; trailing text without one is kept.
func CleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return ""
	}

	var sentences []string
	var current strings.Builder
	for _, r := range cleaned {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	var b strings.Builder
	for i, s := range sentences {
		b.WriteString(s)
		if i == len(sentences)-1 {
			break
		}
		if (i+1)%2 == 0 {
			b.WriteString("\n\n")
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
