// Package document extracts text from source files into page-level
// documents that feed the indexing pipeline.
package document

// Document is the raw text of one source unit (a PDF page, or a whole
// plain-text file) together with its provenance metadata. Documents are
// immutable once produced.
type Document struct {
	Source  string // path of the originating file
	Page    int    // zero-based page index, meaningful only when HasPage
	HasPage bool
	Text    string
}

// LoadFailure records a file that could not be extracted.
type LoadFailure struct {
	Path   string
	Reason string
}
