package model

// Document is a raw attachment handed to the pipeline: bytes plus the
// declared content type and display name from the mail layer. Immutable.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Page is one segmented page of a document. Exactly one of Text and
// ImagePNG is populated: a page either yielded a non-empty extractable
// text layer or was rasterized for vision extraction.
type Page struct {
	Index    int // 1-based
	Text     string
	ImagePNG []byte
}

// HasText reports whether the page carries an extracted text layer.
func (p Page) HasText() bool {
	return p.Text != ""
}
