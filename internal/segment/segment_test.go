package segment

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/config"
	"github.com/sells-group/invoice-cli/internal/model"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name    string
		doc     model.Document
		want    string
		wantErr bool
	}{
		{
			name: "declared pdf",
			doc:  model.Document{Name: "a.bin", ContentType: "application/pdf"},
			want: "application/pdf",
		},
		{
			name: "charset parameter stripped",
			doc:  model.Document{Name: "a.txt", ContentType: "text/plain; charset=utf-8"},
			want: "text/plain",
		},
		{
			name: "octet stream falls back to extension",
			doc:  model.Document{Name: "scan.PDF", ContentType: "application/octet-stream"},
			want: "application/pdf",
		},
		{
			name: "no declared type",
			doc:  model.Document{Name: "sheet.xlsx"},
			want: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		{
			name:    "unknown everywhere",
			doc:     model.Document{Name: "archive.zip", ContentType: "application/zip"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := resolveContentType(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrUnreadableAttachment))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentUnsupportedType(t *testing.T) {
	s := New(config.SegmentConfig{})
	_, err := s.Segment(context.Background(), model.Document{
		Name:        "archive.zip",
		ContentType: "application/zip",
		Data:        []byte{1, 2, 3},
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnreadableAttachment))
}

func TestSegmentTextDocument(t *testing.T) {
	s := New(config.SegmentConfig{})
	pages, err := s.Segment(context.Background(), model.Document{
		Name:        "invoice.txt",
		ContentType: "text/plain",
		Data:        []byte("Invoice Number: INV-1\nTotal: $10.00"),
	})

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Index)
	assert.True(t, pages[0].HasText())
}

func TestSegmentEmptyTextDocument(t *testing.T) {
	s := New(config.SegmentConfig{})
	_, err := s.Segment(context.Background(), model.Document{
		Name:        "blank.txt",
		ContentType: "text/plain",
		Data:        []byte("  \n\t "),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnreadableAttachment))
}

func TestSegmentPNGPassthrough(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	data := encodePNG(t, img)

	s := New(config.SegmentConfig{})
	pages, err := s.Segment(context.Background(), model.Document{
		Name:        "scan.png",
		ContentType: "image/png",
		Data:        data,
	})

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, data, pages[0].ImagePNG)
	assert.False(t, pages[0].HasText())
}

func TestSegmentCorruptImage(t *testing.T) {
	s := New(config.SegmentConfig{})
	_, err := s.Segment(context.Background(), model.Document{
		Name:        "scan.png",
		ContentType: "image/png",
		Data:        []byte("not a png"),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnreadableAttachment))
}

func TestSegmentCSV(t *testing.T) {
	s := New(config.SegmentConfig{})
	pages, err := s.Segment(context.Background(), model.Document{
		Name:        "lines.csv",
		ContentType: "text/csv",
		Data:        []byte("item,qty,total\nWidget,1,10.00\n"),
	})

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "item\tqty\ttotal\nWidget\t1\t10.00", pages[0].Text)
}

func TestSegmentMalformedCSV(t *testing.T) {
	s := New(config.SegmentConfig{})
	_, err := s.Segment(context.Background(), model.Document{
		Name:        "broken.csv",
		ContentType: "text/csv",
		Data:        []byte("a,\"unterminated\n"),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnreadableAttachment))
}

func TestTrimMarginsCropsToContent(t *testing.T) {
	// 100x100 white page with a dark 10x10 block at (40,40).
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := 40; y < 50; y++ {
		for x := 40; x < 50; x++ {
			img.Set(x, y, color.Black)
		}
	}
	data := encodePNG(t, img)

	out := trimMargins(data, 5)
	cropped, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// Content box 10x10 plus 5px pad on each side.
	assert.Equal(t, 20, cropped.Bounds().Dx())
	assert.Equal(t, 20, cropped.Bounds().Dy())

	// The block survives the crop.
	r, g, b, _ := cropped.At(10, 10).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestTrimMarginsBlankPageUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.White)
		}
	}
	data := encodePNG(t, img)
	assert.Equal(t, data, trimMargins(data, 5))
}

func TestTrimMarginsUndecodableUnchanged(t *testing.T) {
	data := []byte("not a png")
	assert.Equal(t, data, trimMargins(data, 5))
}
