package chat_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/quota"
	"docchat-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	cfg := config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "extractive",
		ChunkTarget:     200,
		ChunkOverlap:    40,
		RetrievalTopK:   2,
		OracleTimeoutS:  5,
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func docxFile(t *testing.T) []byte {
	t.Helper()
	var sentences []string
	topics := []string{
		"The refund policy allows returns within thirty days of purchase",
		"Shipping to most regions takes five business days",
		"Customer support is available on weekdays from nine to five",
		"Warranty coverage extends for two years on all hardware",
		"Subscription billing renews automatically at the start of each cycle",
		"Account cancellation takes effect at the end of the paid period",
	}
	for i := 0; i < 6; i++ {
		for _, topic := range topics {
			sentences = append(sentences, fmt.Sprintf("%s according to section %d.", topic, i+1))
		}
	}
	body := strings.Join(sentences, " ")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	xml := `<w:document><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func doRequest(t *testing.T, app *bootstrap.App, method, path, guestID string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if guestID != "" {
		req.Header.Set("X-Guest-Id", guestID)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func uploadDocument(t *testing.T, app *bootstrap.App, guestID string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "handbook.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(docxFile(t)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents", guestID, &buf, mw.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.DocumentID == "" {
		t.Fatal("missing document id in upload response")
	}
	return resp.DocumentID
}

func askBody(question string) *bytes.Buffer {
	payload, _ := json.Marshal(map[string]string{"question": question})
	return bytes.NewBuffer(payload)
}

func TestAskEndpoint_AnswersFromDocument(t *testing.T) {
	app := buildTestApp(t)
	docID := uploadDocument(t, app, "g-ask")

	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/ask", "g-ask",
		askBody("what is the refund policy"), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer         string  `json:"answer"`
		GroundedChunks []int   `json:"groundedChunks"`
		Confidence     float64 `json:"confidence"`
		TokensCharged  int64   `json:"tokensCharged"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode ask response: %v", err)
	}
	if !strings.Contains(strings.ToLower(resp.Answer), "refund") {
		t.Fatalf("answer does not mention refund: %q", resp.Answer)
	}
	if len(resp.GroundedChunks) == 0 {
		t.Fatal("expected grounded chunk indices")
	}
	if resp.TokensCharged < 1 {
		t.Fatalf("expected positive charge, got %d", resp.TokensCharged)
	}

	convRec := doRequest(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/conversation", "g-ask", nil, "")
	if convRec.Code != http.StatusOK {
		t.Fatalf("conversation status %d: %s", convRec.Code, convRec.Body.String())
	}
	var conv struct {
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(convRec.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if len(conv.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.Turns))
	}
	if conv.Turns[0].Role != "user" || conv.Turns[1].Role != "assistant" {
		t.Fatalf("unexpected turn roles: %s, %s", conv.Turns[0].Role, conv.Turns[1].Role)
	}
}

func TestAskEndpoint_UnknownDocument(t *testing.T) {
	app := buildTestApp(t)
	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents/nope/ask", "g-404",
		askBody("anything"), "application/json")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestAskEndpoint_QuotaExhausted(t *testing.T) {
	app := buildTestApp(t)
	docID := uploadDocument(t, app, "g-quota")

	userID := "guest:g-quota"
	acct, err := app.QuotaLedger.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	ok, _, err := app.QuotaLedger.CheckAndReserve(context.Background(), userID, quota.KindText, acct.TextRemaining)
	if err != nil || !ok {
		t.Fatalf("drain balance: ok=%v err=%v", ok, err)
	}

	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/ask", "g-quota",
		askBody("what is the refund policy"), "application/json")
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status %d, want 402: %s", rec.Code, rec.Body.String())
	}
	assertQuotaExhaustedBody(t, rec)

	payload, _ := json.Marshal(map[string]string{"mode": "brief"})
	sumRec := doRequest(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/summaries", "g-quota",
		bytes.NewBuffer(payload), "application/json")
	if sumRec.Code != http.StatusPaymentRequired {
		t.Fatalf("summarize status %d, want 402: %s", sumRec.Code, sumRec.Body.String())
	}
	assertQuotaExhaustedBody(t, sumRec)
}

// assertQuotaExhaustedBody checks a 402 carries the account snapshot so
// clients can render the remaining balance.
func assertQuotaExhaustedBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Usage struct {
					Plan          string `json:"plan"`
					TextRemaining int64  `json:"textRemaining"`
				} `json:"usage"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "quota_exhausted" {
		t.Fatalf("unexpected error code %q", body.Error.Code)
	}
	if body.Error.Details.Usage.Plan != "free" {
		t.Fatalf("usage snapshot missing plan: %s", rec.Body.String())
	}
	if body.Error.Details.Usage.TextRemaining != 0 {
		t.Fatalf("expected drained balance, got %d", body.Error.Details.Usage.TextRemaining)
	}
}

func TestSummarizeEndpoint_BriefInBand(t *testing.T) {
	app := buildTestApp(t)
	docID := uploadDocument(t, app, "g-sum")

	payload, _ := json.Marshal(map[string]string{"mode": "brief"})
	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/summaries", "g-sum",
		bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("summarize status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SummaryID string `json:"summaryId"`
		Mode      string `json:"mode"`
		WordCount int    `json:"wordCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.Mode != "brief" {
		t.Fatalf("unexpected mode %s", resp.Mode)
	}
	if resp.WordCount < 50 || resp.WordCount > 150 {
		t.Fatalf("word count %d outside brief band", resp.WordCount)
	}

	latest := doRequest(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/summaries/latest?mode=brief", "g-sum", nil, "")
	if latest.Code != http.StatusOK {
		t.Fatalf("latest status %d: %s", latest.Code, latest.Body.String())
	}

	missing := doRequest(t, app, http.MethodGet, "/api/v1/documents/"+docID+"/summaries/latest?mode=executive", "g-sum", nil, "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing mode status %d, want 404", missing.Code)
	}
}

func TestSummarizeEndpoint_UnknownMode(t *testing.T) {
	app := buildTestApp(t)
	docID := uploadDocument(t, app, "g-mode")

	payload, _ := json.Marshal(map[string]string{"mode": "haiku"})
	rec := doRequest(t, app, http.MethodPost, "/api/v1/documents/"+docID+"/summaries", "g-mode",
		bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestUsageEndpoints(t *testing.T) {
	app := buildTestApp(t)

	rec := doRequest(t, app, http.MethodGet, "/api/v1/usage", "g-usage", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("usage status %d: %s", rec.Code, rec.Body.String())
	}
	var acct struct {
		Plan          string `json:"plan"`
		TextRemaining int64  `json:"textRemaining"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &acct); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if acct.Plan != "free" || acct.TextRemaining <= 0 {
		t.Fatalf("unexpected account: %+v", acct)
	}

	userID := "guest:g-usage"
	ok, _, err := app.QuotaLedger.CheckAndReserve(context.Background(), userID, quota.KindText, 500)
	if err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}

	reset := doRequest(t, app, http.MethodPost, "/api/v1/dev/usage/reset", "g-usage", nil, "")
	if reset.Code != http.StatusOK {
		t.Fatalf("reset status %d: %s", reset.Code, reset.Body.String())
	}
	var after struct {
		TextRemaining int64 `json:"textRemaining"`
	}
	if err := json.Unmarshal(reset.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode reset: %v", err)
	}
	if after.TextRemaining != acct.TextRemaining {
		t.Fatalf("reset balance %d, want full allotment %d", after.TextRemaining, acct.TextRemaining)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	app := buildTestApp(t)
	rec := doRequest(t, app, http.MethodGet, "/api/v1/usage", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}
