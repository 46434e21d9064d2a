// accumulator.go - Collects multi-page tax invoice pages until the document is complete

package processor

import (
	"strings"
	"sync"
)

// PageBreakSeparator joins accumulated page texts into one document text
const PageBreakSeparator = "\n\n--- PAGE BREAK ---\n\n"

// PageContent is one accumulated page: its extracted text and the stored
// source file it came from.
type PageContent struct {
	Text    string
	FileRef string
}

// Accumulator holds per-unit page state while a multi-page document is still
// arriving. Units live only for the duration of one batch run and are cleared
// atomically on flush.
type Accumulator struct {
	mu    sync.Mutex
	units map[string][]PageContent
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{units: make(map[string][]PageContent)}
}

// AddPage appends one page to the unit, creating the unit on first page.
// Returns the page count after the append.
func (a *Accumulator) AddPage(unitID, text, fileRef string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.units[unitID] = append(a.units[unitID], PageContent{Text: text, FileRef: fileRef})
	return len(a.units[unitID])
}

// PageCount reports how many pages the unit currently holds
func (a *Accumulator) PageCount(unitID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.units[unitID])
}

// Flush takes the unit's combined text and source refs and clears it in one
// step, so a subsequent AddPage starts a fresh unit. Returns ok=false when
// the unit holds no pages.
func (a *Accumulator) Flush(unitID string) (text string, fileRefs []string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pages := a.units[unitID]
	if len(pages) == 0 {
		return "", nil, false
	}
	delete(a.units, unitID)

	texts := make([]string, len(pages))
	fileRefs = make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
		fileRefs[i] = p.FileRef
	}
	return strings.Join(texts, PageBreakSeparator), fileRefs, true
}

// Discard drops any pending pages for the unit without flushing
func (a *Accumulator) Discard(unitID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.units, unitID)
}
