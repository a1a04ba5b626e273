package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat-backend/internal/chunks"
	"docchat-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Result carries extracted text with page-break markers between pages,
// ready for the chunker's page attribution.
type Result struct {
	Text      string
	PageCount int
}

// FromStore extracts text from a stored object.
// Libraries used: github.com/ledongthuc/pdf (PDF); DOCX is read as
// zipped XML directly.
func FromStore(ctx context.Context, store object.ObjectStore, storageKey, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: read: %w", storageKey, mimeType, err)
	}

	res, err := FromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	return res, nil
}

// FromBytes extracts text from an in-memory payload.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return Result{}, fmt.Errorf("unsupported mime type: %s", normalizeMimeType(mimeType, fileName, data))
	}
}

// extractPDF pulls text page by page, joining pages with the chunker's
// page-break marker so chunk page attribution survives.
func extractPDF(data []byte) (Result, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	total := pdfReader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return Result{
		Text:      strings.Join(pages, string(chunks.PageBreak)),
		PageCount: total,
	}, nil
}

func extractDOCX(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{}, errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Result{}, err
	}

	// DOCX has no fixed pagination; treat the whole body as one page.
	return Result{Text: stripDocxXML(string(raw)), PageCount: 1}, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}
	if hasZipEntry(data, "word/document.xml") {
		return mimeDOCX
	}
	if strings.ToLower(filepath.Ext(fileName)) == ".docx" {
		return mimeDOCX
	}
	return clean
}

func hasZipEntry(data []byte, entry string) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == entry {
			return true
		}
	}
	return false
}
