package export

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/petems/recordnote/internal/minutes"
)

// writeClipboard is replaced in tests; the real clipboard needs a desktop
// session.
var writeClipboard = clipboard.WriteAll

// Copy puts the Markdown minutes on the system clipboard.
func (e *Exporter) Copy(doc *minutes.Document) error {
	if doc == nil {
		return ErrNoDocument
	}
	if err := writeClipboard(string(minutes.Serialize(doc))); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}
