// errors.go - Categorized errors for the document pipeline

package processor

import "fmt"

// ClassificationError means the LLM classification call failed. The file
// proceeds as Unknown; logged, not retried here.
type ClassificationError struct {
	FileRef string
	Err     error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for %s: %v", e.FileRef, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// MergeError means the multi-page merge failed. Non-fatal: the pipeline
// degrades to the last page's source reference.
type MergeError struct {
	Refs []string
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge of %d pages failed: %v", len(e.Refs), e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// MatchingError means embedding or search failed for one line item. Non-fatal:
// the item stays unmatched.
type MatchingError struct {
	Description string
	Err         error
}

func (e *MatchingError) Error() string {
	return fmt.Sprintf("matching failed for %q: %v", e.Description, e.Err)
}

func (e *MatchingError) Unwrap() error { return e.Err }

// PersistenceError means a storage read, write, or listing failed. Fatal for
// the batch; the caller marks the batch accordingly.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
