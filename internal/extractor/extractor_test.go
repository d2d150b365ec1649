package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BerylCAtieno/document-assistant/internal/models"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

type fakeRenderer struct {
	pages     int
	calls     int
	lastFirst int
	lastLast  int
	lastDPI   int
	err       error
}

func (f *fakeRenderer) RenderPages(ctx context.Context, path string, first, last, dpi int) ([][]byte, error) {
	f.calls++
	f.lastFirst, f.lastLast, f.lastDPI = first, last, dpi
	if f.err != nil {
		return nil, f.err
	}
	n := f.pages
	if n > last-first+1 {
		n = last - first + 1
	}
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("jpeg-page-%d", i+1))
	}
	return out, nil
}

func newTestExtractor(r PageRenderer, text string, pages int, readErr error) *documentExtractor {
	return &documentExtractor{
		renderer: r,
		readPDF: func(string) (string, int, error) {
			return text, pages, readErr
		},
		logger: utils.NewDiscardLogger(),
	}
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:pPr><w:pStyle w:val="Normal"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, "Contrato de arrendamento", "Senhorio: Maria Silva")

	text, err := ExtractDOCX(data)
	if err != nil {
		t.Fatalf("ExtractDOCX returned error: %v", err)
	}

	want := "Contrato de arrendamento\nSenhorio: Maria Silva\n"
	if text != want {
		t.Errorf("ExtractDOCX = %q, want %q", text, want)
	}
}

func TestExtractDOCXHyperlinkOrder(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Ver </w:t></w:r><w:hyperlink><w:r><w:t>site</w:t></w:r></w:hyperlink><w:r><w:t> agora</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(doc))
	zw.Close()

	text, err := ExtractDOCX(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractDOCX returned error: %v", err)
	}
	if text != "Ver site agora\n" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractDOCXNotZip(t *testing.T) {
	if _, err := ExtractDOCX([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-zip data")
	}
}

func TestExtractDOCXShortTextIsInsufficient(t *testing.T) {
	path := writeFile(t, "curto.docx", buildDOCX(t, "  Olá  ", "", "mundo"))
	e := newTestExtractor(&fakeRenderer{}, "", 0, nil)

	_, err := e.Extract(context.Background(), NewRequest(path))
	if !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestExtractDOCXTruncatesText(t *testing.T) {
	long := strings.Repeat("á", MaxTextChars+500)
	path := writeFile(t, "longo.docx", buildDOCX(t, long))
	e := newTestExtractor(&fakeRenderer{}, "", 0, nil)

	content, err := e.Extract(context.Background(), NewRequest(path))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if content.IsImageSet() {
		t.Fatal("expected text content")
	}
	if n := len([]rune(content.Text)); n != MaxTextChars {
		t.Errorf("expected %d characters, got %d", MaxTextChars, n)
	}
}

func TestExtractPDFModeSelection(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		pages      int
		wantImages int
	}{
		{"text layer at threshold", strings.Repeat("a", MinPDFTextChars), 3, 0},
		{"whitespace does not count", "   " + strings.Repeat("b", MinPDFTextChars-1) + "\n\n\t", 2, 2},
		{"empty text layer", "", 1, 1},
		{"long scan capped at five pages", "", 12, MaxPDFPages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{pages: tt.pages}
			e := newTestExtractor(r, tt.text, tt.pages, nil)

			content, err := e.Extract(context.Background(), models.AnalysisRequest{FilePath: "doc.pdf", Extension: ".pdf"})
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}

			if tt.wantImages == 0 {
				if content.IsImageSet() {
					t.Fatal("expected text mode")
				}
				if r.calls != 0 {
					t.Error("renderer should not be called in text mode")
				}
				return
			}

			if !content.IsImageSet() {
				t.Fatal("expected image mode")
			}
			if len(content.Images) != tt.wantImages {
				t.Errorf("expected %d images, got %d", tt.wantImages, len(content.Images))
			}
			if r.lastDPI != RenderDPI || r.lastFirst != 1 || r.lastLast > MaxPDFPages {
				t.Errorf("unexpected render call: first=%d last=%d dpi=%d", r.lastFirst, r.lastLast, r.lastDPI)
			}
			decoded, err := base64.StdEncoding.DecodeString(content.Images[0])
			if err != nil || string(decoded) != "jpeg-page-1" {
				t.Errorf("first image not base64 of page 1: %q, %v", decoded, err)
			}
		})
	}
}

func TestExtractPDFTruncatesText(t *testing.T) {
	e := newTestExtractor(&fakeRenderer{}, strings.Repeat("x", 20000), 10, nil)

	content, err := e.Extract(context.Background(), models.AnalysisRequest{FilePath: "doc.pdf", Extension: ".pdf"})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(content.Text) != MaxTextChars {
		t.Errorf("expected %d chars, got %d", MaxTextChars, len(content.Text))
	}
}

func TestExtractPDFUnreadableTextFallsBackToImages(t *testing.T) {
	r := &fakeRenderer{pages: 2}
	e := newTestExtractor(r, "", 0, errors.New("broken xref"))

	content, err := e.Extract(context.Background(), models.AnalysisRequest{FilePath: "doc.pdf", Extension: ".pdf"})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !content.IsImageSet() || len(content.Images) != 2 {
		t.Fatalf("expected 2 rendered images, got %+v", content)
	}
	if r.lastLast != MaxPDFPages {
		t.Errorf("unknown page count should request up to %d pages, got %d", MaxPDFPages, r.lastLast)
	}
}

func TestExtractPDFRenderFailure(t *testing.T) {
	e := newTestExtractor(&fakeRenderer{err: errors.New("pdftoppm missing")}, "", 1, nil)

	if _, err := e.Extract(context.Background(), models.AnalysisRequest{FilePath: "doc.pdf", Extension: ".pdf"}); err == nil {
		t.Fatal("expected render error")
	}
}

func TestExtractImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: uint8(x * 30)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	path := writeFile(t, "Foto.PNG", buf.Bytes())

	e := newTestExtractor(&fakeRenderer{}, "", 0, nil)
	content, err := e.Extract(context.Background(), NewRequest(path))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !content.IsImageSet() || len(content.Images) != 1 {
		t.Fatalf("expected exactly one image, got %+v", content)
	}

	raw, err := base64.StdEncoding.DecodeString(content.Images[0])
	if err != nil {
		t.Fatalf("image is not valid base64: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image is not a JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 8 || decoded.Bounds().Dy() != 4 {
		t.Errorf("unexpected size %v", decoded.Bounds())
	}
}

func TestExtractImageCorrupt(t *testing.T) {
	path := writeFile(t, "broken.jpg", []byte("not an image"))
	e := newTestExtractor(&fakeRenderer{}, "", 0, nil)

	if _, err := e.Extract(context.Background(), NewRequest(path)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestExtractUnsupported(t *testing.T) {
	e := newTestExtractor(&fakeRenderer{}, "", 0, nil)

	for _, name := range []string{"notes.txt", "sheet.xlsx", "README"} {
		_, err := e.Extract(context.Background(), NewRequest(name))
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("%s: expected ErrUnsupportedType, got %v", name, err)
		}
	}
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, limit int
		ww, wh      int
	}{
		{100, 50, 4096, 100, 50},
		{8192, 4096, 4096, 4096, 2048},
		{1000, 5000, 1000, 200, 1000},
	}
	for _, tt := range tests {
		w, h := scaledSize(tt.w, tt.h, tt.limit)
		if w != tt.ww || h != tt.wh {
			t.Errorf("scaledSize(%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.limit, w, h, tt.ww, tt.wh)
		}
	}
}

type fakeRunner struct {
	args  []string
	pages int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = args
	prefix := args[len(args)-1]
	for i := f.pages; i >= 1; i-- {
		if err := os.WriteFile(fmt.Sprintf("%s-%02d.jpg", prefix, i), []byte(fmt.Sprintf("p%d", i)), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestPdftoppmRenderer(t *testing.T) {
	runner := &fakeRunner{pages: 3}
	r := NewPdftoppmRenderer("", runner)

	pages, err := r.RenderPages(context.Background(), "scan.pdf", 1, 3, 150)
	if err != nil {
		t.Fatalf("RenderPages returned error: %v", err)
	}
	if len(pages) != 3 || string(pages[0]) != "p1" || string(pages[2]) != "p3" {
		t.Fatalf("pages out of order: %q", pages)
	}

	got := strings.Join(runner.args[:8], " ")
	if got != "-r 150 -jpeg -f 1 -l 3 scan.pdf" {
		t.Errorf("unexpected pdftoppm args: %s", got)
	}
}
