// Package segment turns raw attachment bytes into an ordered sequence
// of pages, each carrying either an extracted text layer or a rasterized
// fallback image.
package segment

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/config"
	"github.com/sells-group/invoice-cli/internal/model"
)

// ErrUnreadableAttachment marks a document that cannot be opened or
// segmented at all. It is the one non-recoverable failure in the
// pipeline: no record can be produced for the attachment.
var ErrUnreadableAttachment = eris.New("unreadable attachment")

// Capabilities describes what can be done with a content type.
type Capabilities struct {
	TextExtractable bool
	Rasterizable    bool
	SpreadsheetLike bool
}

// contentCaps maps normalized content types to their capability set.
// Dispatch is table-driven: new formats are added here, not as new
// branches.
var contentCaps = map[string]Capabilities{
	"application/pdf": {TextExtractable: true, Rasterizable: true},
	"image/png":       {Rasterizable: true},
	"image/jpeg":      {Rasterizable: true},
	"text/plain":      {TextExtractable: true},
	"text/csv":        {SpreadsheetLike: true},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {SpreadsheetLike: true},
	"application/vnd.ms-excel":                                          {SpreadsheetLike: true},
}

// extContentType resolves octet-stream and unlabeled attachments by
// file extension.
var extContentType = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
}

// Segmenter implements page segmentation for all supported attachment
// formats.
type Segmenter struct {
	cfg config.SegmentConfig
}

// New creates a Segmenter, filling defaults for unset config values.
func New(cfg config.SegmentConfig) *Segmenter {
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PadPoints <= 0 {
		cfg.PadPoints = 6
	}
	if cfg.PdfToTextPath == "" {
		cfg.PdfToTextPath = "pdftotext"
	}
	if cfg.PdfToPpmPath == "" {
		cfg.PdfToPpmPath = "pdftoppm"
	}
	return &Segmenter{cfg: cfg}
}

// Segment produces the ordered page sequence for a document. Every page
// yields exactly one artifact; none are dropped. Documents that cannot
// be opened at all fail with ErrUnreadableAttachment.
func (s *Segmenter) Segment(ctx context.Context, doc model.Document) ([]model.Page, error) {
	ct, caps, err := resolveContentType(doc)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("segmenting document",
		zap.String("name", doc.Name),
		zap.String("content_type", ct),
		zap.Int("bytes", len(doc.Data)),
	)

	switch {
	case caps.SpreadsheetLike:
		return s.segmentSheet(doc, ct)
	case caps.TextExtractable && caps.Rasterizable:
		return s.segmentPDF(ctx, doc)
	case caps.TextExtractable:
		return segmentText(doc)
	case caps.Rasterizable:
		return segmentImage(doc, ct)
	}

	return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: no handler for %q", ct)
}

// resolveContentType normalizes the declared MIME type, falling back to
// the file extension for octet-stream and unlabeled attachments.
func resolveContentType(doc model.Document) (string, Capabilities, error) {
	ct := strings.ToLower(strings.TrimSpace(doc.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if _, ok := contentCaps[ct]; !ok {
		ext := strings.ToLower(filepath.Ext(doc.Name))
		if mapped, ok := extContentType[ext]; ok {
			ct = mapped
		}
	}

	caps, ok := contentCaps[ct]
	if !ok {
		return "", Capabilities{}, eris.Wrapf(ErrUnreadableAttachment,
			"segment: unsupported content type %q for %s", doc.ContentType, doc.Name)
	}
	return ct, caps, nil
}

func segmentText(doc model.Document) ([]model.Page, error) {
	text := string(doc.Data)
	if strings.TrimSpace(text) == "" {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: empty text attachment %s", doc.Name)
	}
	return []model.Page{{Index: 1, Text: text}}, nil
}

// segmentImage yields a single rasterized page. JPEG input is
// re-encoded as PNG so downstream always handles one bitmap format.
func segmentImage(doc model.Document, contentType string) ([]model.Page, error) {
	img, _, err := image.Decode(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: decode image %s: %v", doc.Name, err)
	}

	data := doc.Data
	if contentType != "image/png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: convert image %s: %v", doc.Name, err)
		}
		data = buf.Bytes()
	}

	return []model.Page{{Index: 1, ImagePNG: data}}, nil
}
