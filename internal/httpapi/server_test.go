package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/httpapi"
	"github.com/Lllllllleong/pdfdigest/internal/models"
)

type stubProcessor struct {
	result   models.ProcessResult
	docs     map[string]models.Document
	counts   map[models.Status]int
	err      error
	received []models.Reference
}

func (s *stubProcessor) ProcessDocument(_ context.Context, ref models.Reference) models.ProcessResult {
	s.received = append(s.received, ref)
	return s.result
}

func (s *stubProcessor) Lookup(_ context.Context, id string) (models.Document, bool, error) {
	if s.err != nil {
		return models.Document{}, false, s.err
	}
	doc, ok := s.docs[id]
	return doc, ok, nil
}

func (s *stubProcessor) Counts(context.Context) (map[models.Status]int, error) {
	return s.counts, s.err
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, field, filename string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestUploadProcessesPDF(t *testing.T) {
	proc := &stubProcessor{result: models.ProcessResult{
		DocumentID:     "abc",
		Status:         models.OutcomeProcessed,
		LengthClass:    "short",
		Summary:        "A short summary.",
		Keywords:       []string{"summary"},
		ProcessingTime: 0.5,
	}}
	h := httpapi.NewRouter(proc, httpapi.Options{MaxUploadBytes: 1024})

	rec, payload := upload(t, h, "file", "Report.PDF", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "A short summary.", payload["summary"])
	require.Equal(t, []any{"summary"}, payload["keywords"])
	require.Equal(t, "processed", payload["status"])

	require.Len(t, proc.received, 1)
	require.Equal(t, models.OriginUpload, proc.received[0].Origin)
	require.Equal(t, "Report.PDF", proc.received[0].Name)
	require.Equal(t, []byte("%PDF-1.4 body"), proc.received[0].Data)
}

func TestUploadValidation(t *testing.T) {
	proc := &stubProcessor{}
	h := httpapi.NewRouter(proc, httpapi.Options{MaxUploadBytes: 16})

	rec, payload := upload(t, h, "document", "a.pdf", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No file part in the request", payload["error"])

	rec, payload = upload(t, h, "file", "", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No selected file", payload["error"])

	rec, payload = upload(t, h, "file", "notes.txt", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid file type. Only PDF files are allowed.", payload["error"])

	rec, payload = upload(t, h, "file", "big.pdf", bytes.Repeat([]byte("x"), 17))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, payload["error"], "File size exceeds limit")

	require.Empty(t, proc.received)
}

func TestUploadReportsPipelineErrors(t *testing.T) {
	proc := &stubProcessor{result: models.ProcessResult{
		DocumentID: "abc",
		Status:     models.OutcomeError,
		Error:      &models.ErrorPayload{Kind: "extraction", Stage: "analyzing", Message: "failed to extract text: malformed"},
	}}
	h := httpapi.NewRouter(proc, httpapi.Options{MaxUploadBytes: 1024})

	rec, payload := upload(t, h, "file", "bad.pdf", []byte("junk"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "extraction", payload["kind"])
	require.Equal(t, "failed to extract text: malformed", payload["error"])
}

func TestUploadSkippedReturnsStoredResult(t *testing.T) {
	summary := "Stored summary."
	proc := &stubProcessor{
		result: models.ProcessResult{DocumentID: "abc", Status: models.OutcomeSkipped},
		docs: map[string]models.Document{
			"abc": {ID: "abc", Status: models.StatusProcessed, Summary: &summary, Keywords: []string{"stored"}},
		},
	}
	h := httpapi.NewRouter(proc, httpapi.Options{MaxUploadBytes: 1024})

	rec, payload := upload(t, h, "file", "again.pdf", []byte("%PDF"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "skipped", payload["status"])
	require.Equal(t, "Stored summary.", payload["summary"])
}

func TestDocumentLookup(t *testing.T) {
	proc := &stubProcessor{docs: map[string]models.Document{
		"abc": {ID: "abc", Status: models.StatusError},
	}}
	h := httpapi.NewRouter(proc, httpapi.Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, models.StatusError, doc.Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountsAndHealth(t *testing.T) {
	proc := &stubProcessor{counts: map[models.Status]int{models.StatusProcessed: 4, models.StatusError: 1}}
	h := httpapi.NewRouter(proc, httpapi.Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/counts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	require.Equal(t, 4, counts["processed"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	proc.err = errors.New("down")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/counts", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitRemoteReference(t *testing.T) {
	proc := &stubProcessor{result: models.ProcessResult{DocumentID: "abc", Status: models.OutcomeProcessed, Summary: "S."}}
	h := httpapi.NewRouter(proc, httpapi.Options{})

	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString(`{"url":"gs://papers/a.pdf"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proc.received, 1)
	require.Equal(t, "gs://papers/a.pdf", proc.received[0].Name)
	require.Equal(t, models.OriginRemote, proc.received[0].Origin)

	for _, body := range []string{`{"url":"ftp://x/a.pdf"}`, `{"url":""}`, `not json`} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Len(t, proc.received, 1)
}
