package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/document"
	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
	"github.com/kailas-cloud/greenqa/internal/domain/search/request"
	"github.com/kailas-cloud/greenqa/internal/domain/search/result"
	"github.com/kailas-cloud/greenqa/internal/sample"
	healthuc "github.com/kailas-cloud/greenqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/greenqa/internal/usecase/qa"
	"github.com/kailas-cloud/greenqa/internal/version"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeUnauthorized       = "unauthorized"
	codeNotReady           = "index_not_ready"
	codeUnreadable         = "document_unreadable"
	codeNoChunks           = "no_chunks"
	codeInvalidChunking    = "invalid_chunking"
	codeDocumentTooLarge   = "document_too_large"
	codeDocumentNotSet     = "document_not_configured"
	codeInternalError      = "internal_error"
	defaultUploadSource    = "upload"
	uploadSourceQueryParam = "source"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// AskDefaults fill in question parameters the client leaves out.
type AskDefaults struct {
	Mode         mode.Mode
	Threshold    float64
	Alternatives int
}

// Server serves the question answering API.
type Server struct {
	qa            *qauc.Service
	health        *healthuc.Service
	defaults      AskDefaults
	documentPath  string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
// documentPath is the file rebuilt by POST /api/v1/documents/reload; empty disables reload.
func NewServer(
	qa *qauc.Service,
	health *healthuc.Service,
	defaults AskDefaults,
	documentPath string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		qa:           qa,
		health:       health,
		defaults:     defaults,
		documentPath: documentPath,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidChunking, http.StatusBadRequest, codeInvalidChunking),
		sentinelHandler(domain.ErrNotReady, http.StatusConflict, codeNotReady),
		sentinelHandler(domain.ErrUnreadable, http.StatusUnprocessableEntity, codeUnreadable),
		sentinelHandler(domain.ErrNoChunks, http.StatusUnprocessableEntity, codeNoChunks),
	}
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.GetStatus)
		r.Post("/documents", s.UploadDocument)
		r.Post("/documents/sample", s.ProcessSample)
		r.Post("/documents/reload", s.ReloadDocument)
		r.Delete("/index", s.ResetIndex)
		r.Post("/ask", s.Ask)
	})
}

// --- Wire types ---

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	State            string     `json:"state"`
	Source           string     `json:"source,omitempty"`
	BuildID          string     `json:"build_id,omitempty"`
	BuiltAt          *time.Time `json:"built_at,omitempty"`
	Chunks           int        `json:"chunks"`
	Vocabulary       int        `json:"vocabulary"`
	Version          string     `json:"version"`
	ExampleQuestions []string   `json:"example_questions"`
}

type askRequest struct {
	Question     string   `json:"question"`
	Mode         string   `json:"mode,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	Alternatives *int     `json:"alternatives,omitempty"`
}

type passage struct {
	Ordinal int     `json:"ordinal"`
	Start   int     `json:"start"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

type askResponse struct {
	Found        bool      `json:"found"`
	Mode         string    `json:"mode"`
	BuildID      string    `json:"build_id"`
	Passage      string    `json:"passage,omitempty"`
	Simplified   string    `json:"simplified,omitempty"`
	Score        float64   `json:"score"`
	Confidence   string    `json:"confidence,omitempty"`
	Alternatives []passage `json:"alternatives,omitempty"`
}

// --- Handlers ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetStatus handles GET /api/v1/status.
func (s *Server) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusToWire(s.qa.Status()))
}

// UploadDocument handles POST /api/v1/documents. The body is the raw document text.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, document.MaxContentSize)
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeDocumentTooLarge,
				fmt.Sprintf("document exceeds %d bytes", document.MaxContentSize))
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	source := r.URL.Query().Get(uploadSourceQueryParam)
	if source == "" {
		source = defaultUploadSource
	}

	doc, err := document.New(source, raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.process(w, r, doc)
}

// ProcessSample handles POST /api/v1/documents/sample.
func (s *Server) ProcessSample(w http.ResponseWriter, r *http.Request) {
	doc, err := document.New(sample.Source, sample.Document())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.process(w, r, doc)
}

// ReloadDocument handles POST /api/v1/documents/reload.
func (s *Server) ReloadDocument(w http.ResponseWriter, r *http.Request) {
	if s.documentPath == "" {
		writeError(w, http.StatusNotFound, codeDocumentNotSet, "no document path configured")
		return
	}
	status, err := s.qa.ProcessFile(r.Context(), s.documentPath)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToWire(status))
}

// ResetIndex handles DELETE /api/v1/index.
func (s *Server) ResetIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.qa.Reset(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	askReq, err := s.requestFromWire(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	answer, err := s.qa.Ask(r.Context(), &askReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToWire(&answer))
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, doc document.Document) {
	status, err := s.qa.Process(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToWire(status))
}

// --- Converters ---

func (s *Server) requestFromWire(req askRequest) (request.Request, error) {
	m := s.defaults.Mode
	if req.Mode != "" {
		m = mode.Mode(req.Mode)
	}
	threshold := s.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	alternatives := s.defaults.Alternatives
	if req.Alternatives != nil {
		alternatives = *req.Alternatives
	}
	return request.New(req.Question, m, threshold, alternatives)
}

func statusToWire(st qauc.Status) statusResponse {
	resp := statusResponse{
		State:            string(st.State),
		Source:           st.Source,
		BuildID:          st.BuildID,
		Chunks:           st.Chunks,
		Vocabulary:       st.Vocabulary,
		Version:          version.Version,
		ExampleQuestions: sample.Questions(),
	}
	if !st.BuiltAt.IsZero() {
		builtAt := st.BuiltAt
		resp.BuiltAt = &builtAt
	}
	return resp
}

func answerToWire(a *qauc.Answer) askResponse {
	resp := askResponse{
		Found:   a.Found,
		Mode:    string(a.Mode),
		BuildID: a.BuildID,
	}
	if !a.Found {
		return resp
	}
	resp.Passage = a.Match.Text()
	resp.Simplified = a.Simplified
	resp.Score = a.Match.Score()
	resp.Confidence = a.Confidence()
	if len(a.Alternatives) > 0 {
		resp.Alternatives = make([]passage, len(a.Alternatives))
		for i := range a.Alternatives {
			resp.Alternatives[i] = passageToWire(&a.Alternatives[i])
		}
	}
	return resp
}

func passageToWire(r *result.Result) passage {
	return passage{
		Ordinal: r.Ordinal(),
		Start:   r.Start(),
		Text:    r.Text(),
		Score:   r.Score(),
	}
}

// --- Errors ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation errors keep their detail; everything else collapses to the sentinel text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidChunking) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotReady,
		domain.ErrUnreadable,
		domain.ErrNoChunks,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
