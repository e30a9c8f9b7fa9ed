package segment

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/model"
)

// segmentPDF splits a PDF into per-page files, extracts the text layer
// of each page, and rasterizes pages whose text layer is empty. Page
// order is preserved; a page with any extractable text becomes a text
// page, everything else becomes a clipped PNG.
func (s *Segmenter) segmentPDF(ctx context.Context, doc model.Document) ([]model.Page, error) {
	tmpDir, err := os.MkdirTemp("", "invoice-segment-*")
	if err != nil {
		return nil, eris.Wrap(err, "segment: create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	source := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(source, doc.Data, 0o600); err != nil {
		return nil, eris.Wrap(err, "segment: write source pdf")
	}

	// Optimize first: repairs mild corruption and normalizes the xref
	// table so split and render behave on real-world mail attachments.
	optimized := filepath.Join(tmpDir, "optimized.pdf")
	if err := api.OptimizeFile(source, optimized, nil); err != nil {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: optimize %s: %v", doc.Name, err)
	}

	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: page count %s: %v", doc.Name, err)
	}
	if pageCount < 1 {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: %s has no pages", doc.Name)
	}

	if err := api.SplitFile(optimized, tmpDir, 1, nil); err != nil {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: split %s: %v", doc.Name, err)
	}

	if s.cfg.MaxPages > 0 && pageCount > s.cfg.MaxPages {
		zap.L().Warn("truncating document pages",
			zap.String("name", doc.Name),
			zap.Int("pages", pageCount),
			zap.Int("max_pages", s.cfg.MaxPages),
		)
		pageCount = s.cfg.MaxPages
	}

	base := strings.TrimSuffix(optimized, filepath.Ext(optimized))
	pages := make([]model.Page, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		pagePath := fmt.Sprintf("%s_%d.pdf", base, i)

		text, err := s.pageText(ctx, pagePath)
		if err != nil {
			zap.L().Warn("text extraction failed, rasterizing page",
				zap.String("name", doc.Name),
				zap.Int("page", i),
				zap.Error(err),
			)
			text = ""
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, model.Page{Index: i, Text: text})
			continue
		}

		img, err := s.rasterizePage(ctx, pagePath, tmpDir, i)
		if err != nil {
			return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: rasterize page %d of %s: %v", i, doc.Name, err)
		}
		pages = append(pages, model.Page{Index: i, ImagePNG: s.clip(img)})
	}

	return pages, nil
}

// pageText runs pdftotext in layout mode on a single-page PDF and
// returns its stdout.
func (s *Segmenter) pageText(ctx context.Context, pagePath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.PdfToTextPath, "-layout", pagePath, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "segment: pdftotext: %s", stderr.String())
	}
	return stdout.String(), nil
}

// rasterizePage renders a single-page PDF to PNG via pdftoppm and
// returns the image bytes.
func (s *Segmenter) rasterizePage(ctx context.Context, pagePath, dir string, index int) ([]byte, error) {
	prefix := filepath.Join(dir, "page_"+strconv.Itoa(index))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.PdfToPpmPath, "-r", strconv.Itoa(s.cfg.DPI), "-png", pagePath, prefix)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "segment: pdftoppm: %s", stderr.String())
	}

	// pdftoppm appends its own page suffix to the output prefix.
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, eris.Wrap(err, "segment: glob rendered pages")
	}
	if len(matches) == 0 {
		return nil, eris.New("segment: pdftoppm produced no output")
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, eris.Wrap(err, "segment: read rendered page")
	}
	return data, nil
}

// clip crops the raster to a padded bounding box around detected
// content. The pad is configured in PDF points and scaled to pixels at
// the render DPI.
func (s *Segmenter) clip(data []byte) []byte {
	pad := int(s.cfg.PadPoints * float64(s.cfg.DPI) / 72.0)
	return trimMargins(data, pad)
}
