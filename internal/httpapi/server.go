// Package httpapi exposes the pipeline over HTTP: PDF upload, record lookup and status counts.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/services"
)

// multipartOverhead is the allowance for multipart headers on top of the file limit.
const multipartOverhead = 1 << 20

// DocumentProcessor is the part of services.Processor the HTTP layer needs.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, ref models.Reference) models.ProcessResult
	Lookup(ctx context.Context, id string) (models.Document, bool, error)
	Counts(ctx context.Context) (map[models.Status]int, error)
}

// Options configures the router.
type Options struct {
	MaxUploadBytes int64
	Logger         *slog.Logger
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

type server struct {
	proc      DocumentProcessor
	log       *slog.Logger
	maxUpload int64
}

// NewRouter builds the chi router serving proc.
func NewRouter(proc DocumentProcessor, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	s := &server{proc: proc, log: opts.Logger, maxUpload: opts.MaxUploadBytes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/documents", s.handleSubmit)
	r.Get("/documents/{id}", s.handleDocument)
	r.Get("/counts", s.handleCounts)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type uploadResponse struct {
	DocumentID     string   `json:"documentId"`
	Status         string   `json:"status"`
	LengthClass    string   `json:"lengthClass,omitempty"`
	Summary        string   `json:"summary"`
	Keywords       []string `json:"keywords"`
	ProcessingTime float64  `json:"processingTime"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	tooLarge := fmt.Sprintf("File size exceeds limit (%s max).", formatLimit(s.maxUpload))

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: tooLarge})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file part in the request"})
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// a file input submitted without a selection arrives as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No selected file"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file part in the request"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	defer file.Close()

	name := filepath.Base(strings.TrimSpace(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No selected file"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to save file"})
		return
	}
	if int64(len(data)) > s.maxUpload {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: tooLarge})
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid file type. Only PDF files are allowed."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	res := s.proc.ProcessDocument(ctx, models.Reference{Name: name, Origin: models.OriginUpload, Data: data})
	switch res.Status {
	case models.OutcomeError:
		s.log.Warn("Upload processing failed.", "documentName", name, "kind", res.Error.Kind, "error", res.Error.Message)
		writeJSON(w, statusForKind(res.Error.Kind), errorResponse{Error: res.Error.Message, Kind: res.Error.Kind})
		return
	case models.OutcomeSkipped:
		s.writeStored(r.Context(), w, res)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		DocumentID:     res.DocumentID,
		Status:         string(res.Status),
		LengthClass:    res.LengthClass,
		Summary:        res.Summary,
		Keywords:       nonNil(res.Keywords),
		ProcessingTime: res.ProcessingTime,
	})
}

// writeStored answers a re-upload of an already processed file from its record.
func (s *server) writeStored(ctx context.Context, w http.ResponseWriter, res models.ProcessResult) {
	doc, ok, err := s.proc.Lookup(ctx, res.DocumentID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document store unavailable", Kind: string(services.KindPersistence)})
		return
	}
	out := uploadResponse{DocumentID: res.DocumentID, Status: string(res.Status), LengthClass: res.LengthClass, Keywords: []string{}}
	if ok {
		if doc.Summary != nil {
			out.Summary = *doc.Summary
		}
		out.Keywords = nonNil(doc.Keywords)
		if doc.ProcessingTime != nil {
			out.ProcessingTime = *doc.ProcessingTime
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type submitRequest struct {
	URL string `json:"url"`
}

// handleSubmit processes a remote reference (http, https or gs) synchronously.
func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request: could not parse JSON"})
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || u.Host == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "a url with http, https or gs scheme is required"})
		return
	}
	switch u.Scheme {
	case "http", "https", "gs":
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "a url with http, https or gs scheme is required"})
		return
	}

	res := s.proc.ProcessDocument(r.Context(), models.Reference{Name: u.String(), Origin: models.OriginRemote})
	if res.Status == models.OutcomeError {
		writeJSON(w, statusForKind(res.Error.Kind), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok, err := s.proc.Lookup(r.Context(), id)
	if err != nil {
		s.log.Error("Lookup failed.", "documentId", id, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document store unavailable", Kind: string(services.KindPersistence)})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.proc.Counts(r.Context())
	if err != nil {
		s.log.Error("Count failed.", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document store unavailable", Kind: string(services.KindPersistence)})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func statusForKind(kind string) int {
	switch services.ErrorKind(kind) {
	case services.KindExtraction, services.KindClassification:
		return http.StatusUnprocessableEntity
	case services.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func formatLimit(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
