// Package api exposes table sync, record lookup and record actions over
// HTTP/JSON.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/pack"
	"github.com/copperpack/copper-pack/internal/schema"
)

const (
	headerAPIKey    = "X-Copper-Api-Key"
	headerUserEmail = "X-Copper-User-Email"
	headerRequestID = "X-Request-Id"

	maxBodyBytes = 1 << 20

	// Copper's request limits reset every minute.
	retryAfterSeconds = "60"
)

// Server is an HTTP API server in front of the Copper adapter.
type Server struct {
	factory   *pack.Factory
	defaults  copper.Credentials // used when a request carries no credentials
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server.
func NewServer(factory *pack.Factory, defaults copper.Credentials, logger *slog.Logger, authToken string) *Server {
	return &Server{
		factory:   factory,
		defaults:  defaults,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check; no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /v1/schemas/{type}", s.auth(s.handleSchema))
	mux.HandleFunc("GET /v1/tables/{type}", s.auth(s.handleSync))
	mux.HandleFunc("GET /v1/records/{type}", s.auth(s.handleGetRecord))
	mux.HandleFunc("POST /v1/opportunities/status", s.auth(s.handleSetStatus))
	mux.HandleFunc("POST /v1/opportunities/stage", s.auth(s.handleSetStage))
	mux.HandleFunc("POST /v1/records/{type}/assign", s.auth(s.handleAssign))
	mux.HandleFunc("POST /v1/records/{type}/tags", s.auth(s.handleAddTag))
	mux.HandleFunc("DELETE /v1/records/{type}/tags", s.auth(s.handleRemoveTag))
	mux.HandleFunc("POST /v1/records/{type}/custom-fields", s.auth(s.handleSetCustomField))

	return s.requestID(mux)
}

// --- middleware ---

// requestID tags every request with an id, echoed in the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("api: request", "method", r.Method, "path", r.URL.Path,
			"request_id", id, "duration_ms", time.Since(start).Milliseconds())
	})
}

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// credentials returns the request's Copper credentials, falling back to the
// configured ones when the request carries none.
func (s *Server) credentials(r *http.Request) copper.Credentials {
	creds := copper.Credentials{
		APIKey:    r.Header.Get(headerAPIKey),
		UserEmail: r.Header.Get(headerUserEmail),
	}
	if creds.APIKey == "" && creds.UserEmail == "" {
		return s.defaults
	}
	return creds
}

// session builds a session from the request's credentials. It writes the
// error response itself.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*pack.Session, bool) {
	creds := s.credentials(r)
	if err := creds.Validate(); err != nil {
		s.writeError(w, http.StatusUnauthorized, "copper credentials required: set "+headerAPIKey+" and "+headerUserEmail)
		return nil, false
	}
	sess, err := s.factory.Session(creds)
	if err != nil {
		s.logger.Error("api: creating session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create session")
		return nil, false
	}
	return sess, true
}

// recordType parses the {type} path value.
func (s *Server) recordType(w http.ResponseWriter, r *http.Request) (models.RecordType, bool) {
	rt, err := models.ParseRecordType(r.PathValue("type"))
	if err != nil {
		s.writeFailure(w, err)
		return "", false
	}
	return rt, true
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSchema serves the static columns of a table. When credentials are
// available the account's custom field columns are appended, matching what
// synced records carry.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	if s.credentials(r).Validate() != nil {
		s.writeJSON(w, http.StatusOK, schema.For(rt))
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	defs, err := sess.Loader.CustomFieldDefinitions(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, enrich.FullSchema(rt, &models.ReferenceData{CustomFields: defs}))
}

// syncResponse is returned by GET /v1/tables/{type}.
type syncResponse struct {
	Result       []models.Record `json:"result"`
	Continuation string          `json:"continuation,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	cont, err := models.DecodeContinuation(r.URL.Query().Get("continuation"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	page, err := sess.Tables.Sync(r.Context(), rt, cont)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	resp := syncResponse{Result: page.Result}
	if page.Continuation != nil {
		resp.Continuation = page.Continuation.Encode()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		s.writeError(w, http.StatusBadRequest, "ref is required")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	rec, err := sess.Actions.Get(r.Context(), rt, ref)
	s.writeRecord(w, rec, err)
}

// actionRequest is the body accepted by every action endpoint. Each
// endpoint reads only the fields it needs.
type actionRequest struct {
	Ref        string `json:"ref"`
	Status     string `json:"status"`
	LossReason string `json:"loss_reason"`
	Stage      string `json:"stage"`
	Email      string `json:"email"`
	Tag        string `json:"tag"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

func (s *Server) decodeAction(w http.ResponseWriter, r *http.Request) (actionRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Ref) == "" {
		s.writeError(w, http.StatusBadRequest, "ref is required")
		return req, false
	}
	return req, true
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.SetStatus(r.Context(), req.Ref, req.Status, req.LossReason)
	s.writeRecord(w, rec, err)
}

func (s *Server) handleSetStage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.SetStage(r.Context(), req.Ref, req.Stage)
	s.writeRecord(w, rec, err)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.Assign(r.Context(), rt, req.Ref, req.Email)
	s.writeRecord(w, rec, err)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.AddTag(r.Context(), rt, req.Ref, req.Tag)
	s.writeRecord(w, rec, err)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.RemoveTag(r.Context(), rt, req.Ref, req.Tag)
	s.writeRecord(w, rec, err)
}

func (s *Server) handleSetCustomField(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rec, err := sess.Actions.SetCustomField(r.Context(), rt, req.Ref, req.Field, req.Value)
	s.writeRecord(w, rec, err)
}

// --- helpers ---

func (s *Server) writeRecord(w http.ResponseWriter, rec models.Record, err error) {
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier),
		errors.Is(err, models.ErrInvalidValue),
		errors.Is(err, models.ErrTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case copper.IsRateLimited(err):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeFailure writes err with the status matching its kind. Only user
// errors and upstream errors are shown verbatim.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("api: request failed", "error", err)
		s.writeError(w, status, "internal error")
		return
	}
	switch status {
	case http.StatusBadGateway:
		s.logger.Warn("api: upstream failure", "error", err)
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	s.writeError(w, status, err.Error())
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
