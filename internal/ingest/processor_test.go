package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"docchat-backend/internal/chunks"
	"docchat-backend/internal/documents"
)

type stubStore struct {
	objects map[string][]byte
}

func (s *stubStore) Save(ctx context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := userID + "/" + fileName
	s.objects[key] = data
	return key, int64(len(data)), "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.objects[storageKey])), nil
}

func docxPayload(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestProcessor() (*Processor, *stubStore) {
	store := &stubStore{objects: map[string][]byte{}}
	return &Processor{
		Store:   store,
		Docs:    documents.NewMemoryRepo(),
		Chunks:  chunks.NewMemoryRepo(),
		Target:  50,
		Overlap: 10,
	}, store
}

func seedDocument(t *testing.T, p *Processor, store *stubStore, userID string, payload []byte) documents.Document {
	t.Helper()
	key, size, mime, err := store.Save(context.Background(), userID, "notes.docx", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save object: %v", err)
	}
	doc := documents.Document{
		ID:         "doc-1",
		UserID:     userID,
		FileName:   "notes.docx",
		MimeType:   mime,
		SizeBytes:  size,
		StorageKey: key,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.Docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestProcess_ChunksAndMarksProcessed(t *testing.T) {
	p, store := newTestProcessor()
	body := strings.Repeat("words of content here ", 12)
	doc := seedDocument(t, p, store, "user-1", docxPayload(t, body))

	if err := p.Process(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	list, err := p.Chunks.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected chunks to be written")
	}

	got, err := p.Docs.GetByID(context.Background(), "user-1", doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if !got.Processed {
		t.Fatal("expected document marked processed")
	}
	if got.ChunkCount != len(list) {
		t.Fatalf("chunk count mismatch: record says %d, stored %d", got.ChunkCount, len(list))
	}
	if got.PageCount != 1 {
		t.Fatalf("expected docx page count 1, got %d", got.PageCount)
	}
	if got.ProcessedAt == nil {
		t.Fatal("expected processed timestamp")
	}
}

func TestProcess_AlreadyProcessedIsNoop(t *testing.T) {
	p, store := newTestProcessor()
	doc := seedDocument(t, p, store, "user-1", docxPayload(t, strings.Repeat("alpha beta ", 20)))

	if err := p.Process(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("first process: %v", err)
	}
	first, err := p.Chunks.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}

	if err := p.Process(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("second process: %v", err)
	}
	second, err := p.Chunks.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list chunks after reprocess: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("reprocess changed chunk count: %d -> %d", len(first), len(second))
	}
}

func TestProcess_UnknownDocument(t *testing.T) {
	p, _ := newTestProcessor()
	err := p.Process(context.Background(), "user-1", "missing")
	if err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestIngestText_PageBreaksDrivePageCount(t *testing.T) {
	p, _ := newTestProcessor()
	text := strings.Repeat("page one words ", 5) + string(chunks.PageBreak) +
		strings.Repeat("page two words ", 5) + string(chunks.PageBreak) +
		strings.Repeat("page three words ", 5)

	doc, err := p.IngestText(context.Background(), "user-1", "paste.txt", text)
	if err != nil {
		t.Fatalf("ingest text: %v", err)
	}
	if !doc.Processed {
		t.Fatal("expected ingested text marked processed")
	}
	if doc.PageCount != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.PageCount)
	}

	list, err := p.Chunks.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if err := chunks.VerifyDense(list); err != nil {
		t.Fatalf("chunk sequence not dense: %v", err)
	}
}

func TestIngestText_EmptyRejected(t *testing.T) {
	p, _ := newTestProcessor()
	if _, err := p.IngestText(context.Background(), "user-1", "paste.txt", "   "); err == nil {
		t.Fatal("expected error for empty text")
	}
}
