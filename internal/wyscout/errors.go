package wyscout

import "fmt"

// ParseError reports one rejected input document: the document is skipped
// and reported, the file's remaining documents still load. Index is the
// document's position in the file array, or -1 when the file itself could
// not be parsed.
type ParseError struct {
	File   string
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: document %d: field %s: %s", e.File, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: document %d: %s", e.File, e.Index, e.Reason)
}
