// Package coppertest provides an in-memory fake of the Copper developer API
// for tests.
package coppertest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/models"
)

const (
	// APIKey and UserEmail are the credentials the fake accepts.
	APIKey    = "test-api-key"
	UserEmail = "owner@example.com"

	basePath = "/developer_api/v1/"
)

// RecordedRequest is one request the fake received.
type RecordedRequest struct {
	Method string
	Path   string // relative to the API root, e.g. "opportunities/search"
	Body   map[string]any
}

// Server is a fake Copper API backed by in-memory records.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	refs     models.ReferenceData
	records  map[models.RecordType][]map[string]any
	requests []RecordedRequest
	failures map[string]int
}

// NewServer starts a fake loaded with DefaultReferenceData and no records.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		refs:     DefaultReferenceData(),
		records:  make(map[models.RecordType][]map[string]any),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root of the fake.
func (s *Server) BaseURL() string {
	return s.URL + basePath
}

// Credentials returns the credentials the fake accepts.
func Credentials() copper.Credentials {
	return copper.Credentials{APIKey: APIKey, UserEmail: UserEmail}
}

// NewClient returns a client pointed at the fake, without a response cache.
func (s *Server) NewClient(t testing.TB) *copper.Client {
	t.Helper()
	c, err := copper.NewClient(copper.Options{BaseURL: s.BaseURL()}, Credentials(), nil, QuietLogger())
	if err != nil {
		t.Fatalf("coppertest: creating client: %v", err)
	}
	return c
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetReferenceData replaces the reference datasets served by the fake.
func (s *Server) SetReferenceData(refs models.ReferenceData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = refs
}

// AddRecord stores a raw record. rec must carry a numeric "id".
func (s *Server) AddRecord(rt models.RecordType, rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rt] = append(s.records[rt], rec)
}

// Record returns a copy of the stored record, or nil.
func (s *Server) Record(rt models.RecordType, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.find(rt, id); rec != nil {
		return clone(rec)
	}
	return nil
}

// Fail makes every request for method+path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-PW-AccessToken") != APIKey || r.Header.Get("X-PW-UserEmail") != UserEmail {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, basePath)
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, RecordedRequest{Method: r.Method, Path: path, Body: body})

	if status, ok := s.failures[r.Method+" "+path]; ok {
		writeError(w, status, "injected failure")
		return
	}

	switch {
	case r.Method == http.MethodGet && path == "account":
		writeJSON(w, s.refs.Account)
	case r.Method == http.MethodPost && path == "users/search":
		writeJSON(w, s.refs.Users)
	case r.Method == http.MethodGet && path == "pipelines":
		writeJSON(w, s.refs.Pipelines)
	case r.Method == http.MethodGet && path == "customer_sources":
		writeJSON(w, s.refs.CustomerSources)
	case r.Method == http.MethodGet && path == "loss_reasons":
		writeJSON(w, s.refs.LossReasons)
	case r.Method == http.MethodGet && path == "contact_types":
		writeJSON(w, s.refs.ContactTypes)
	case r.Method == http.MethodGet && path == "custom_field_definitions":
		writeJSON(w, s.refs.CustomFields)
	default:
		s.handleRecords(w, r.Method, path, body)
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, method, path string, body map[string]any) {
	plural, rest, _ := strings.Cut(path, "/")
	var rt models.RecordType
	for _, candidate := range models.ValidRecordTypes {
		if candidate.APIPath() == plural {
			rt = candidate
		}
	}
	if rt == "" || rest == "" {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	if rest == "search" && method == http.MethodPost {
		writeJSON(w, s.search(rt, body))
		return
	}

	rec := s.find(rt, rest)
	if rec == nil {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	switch method {
	case http.MethodGet:
		writeJSON(w, rec)
	case http.MethodPut:
		applyUpdate(rec, body)
		writeJSON(w, rec)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) search(rt models.RecordType, body map[string]any) []map[string]any {
	pageSize := intParam(body, "page_size", 20)
	pageNumber := intParam(body, "page_number", 1)

	all := s.records[rt]
	start := (pageNumber - 1) * pageSize
	if start >= len(all) || start < 0 {
		return []map[string]any{}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (s *Server) find(rt models.RecordType, id string) map[string]any {
	for _, rec := range s.records[rt] {
		if models.NormalizeID(rec["id"]) == id {
			return rec
		}
	}
	return nil
}

// applyUpdate merges a PUT body into rec the way Copper does: top-level keys
// replace, custom_fields merge by definition id.
func applyUpdate(rec, body map[string]any) {
	for k, v := range body {
		if k != "custom_fields" {
			rec[k] = v
			continue
		}
		updates, _ := v.([]any)
		existing, _ := rec["custom_fields"].([]any)
		byID := make(map[string]int, len(existing))
		for i, e := range existing {
			if m, ok := e.(map[string]any); ok {
				byID[models.NormalizeID(m["custom_field_definition_id"])] = i
			}
		}
		for _, u := range updates {
			m, ok := u.(map[string]any)
			if !ok {
				continue
			}
			id := models.NormalizeID(m["custom_field_definition_id"])
			if i, ok := byID[id]; ok {
				existing[i] = m
			} else {
				existing = append(existing, m)
			}
		}
		rec["custom_fields"] = existing
	}
}

func intParam(body map[string]any, key string, def int) int {
	switch v := body[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func clone(rec map[string]any) map[string]any {
	b, _ := json.Marshal(rec)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "status": status, "message": msg})
}
