package segment

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/invoice-cli/internal/model"
)

// segmentSheet renders a spreadsheet attachment as text pages, one per
// sheet. Cells are tab-separated so column structure survives for the
// model.
func (s *Segmenter) segmentSheet(doc model.Document, contentType string) ([]model.Page, error) {
	if contentType == "text/csv" {
		return segmentCSV(doc)
	}
	return segmentXLSX(doc)
}

func segmentCSV(doc model.Document) ([]model.Page, error) {
	r := csv.NewReader(bytes.NewReader(doc.Data))
	r.FieldsPerRecord = -1

	var lines []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: parse csv %s: %v", doc.Name, err)
		}
		lines = append(lines, strings.Join(row, "\t"))
	}

	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: empty csv %s", doc.Name)
	}
	return []model.Page{{Index: 1, Text: text}}, nil
}

func segmentXLSX(doc model.Document) ([]model.Page, error) {
	f, err := xlsx.OpenBinary(doc.Data)
	if err != nil {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: open workbook %s: %v", doc.Name, err)
	}

	var pages []model.Page
	for _, sheet := range f.Sheets {
		var lines []string
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for i, cell := range row.Cells {
				cells[i] = cell.String()
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}

		text := strings.Join(lines, "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, model.Page{
			Index: len(pages) + 1,
			Text:  sheet.Name + "\n" + text,
		})
	}

	if len(pages) == 0 {
		return nil, eris.Wrapf(ErrUnreadableAttachment, "segment: workbook %s has no populated sheets", doc.Name)
	}
	return pages, nil
}
