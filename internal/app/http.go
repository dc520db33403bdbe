package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kavosh/internal/authpw"
	"kavosh/internal/logger"
	"kavosh/internal/metrics"
	"kavosh/internal/store"
)

// routes is the fixed set of paths recorded as metric labels.
var routes = map[string]bool{
	"/api/health":        true,
	"/api/ready":         true,
	"/api/search":        true,
	"/api/suggest":       true,
	"/api/reindex":       true,
	"/api/history":       true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/metrics":           true,
}

type HTTPServer struct {
	service    *Service
	corsOrigin string
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, m *metrics.Metrics, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		metrics:    m,
		log:        logger.Component(log, "http"),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/metrics" && s.metrics != nil {
		s.metrics.Handler().ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/suggest" {
		suggestions, err := s.service.Suggest(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/reindex" {
		s.handleReindex(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/history" {
		userID, err := requiredUserID(r.URL.Query().Get("user_id"))
		if err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		histories, err := s.service.ListHistory(r.Context(), userID)
		if err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"histories": histories})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/history" {
		var body struct {
			UserID int64  `json:"user_id"`
			Query  string `json:"query"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.RecordHistory(r.Context(), body.UserID, body.Query); err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"successful": true})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		var body authpw.RegisterRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.Register(r.Context(), body)
		if err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, userResponse(user))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		var body authpw.LoginRequest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.Login(r.Context(), body)
		if err != nil {
			s.writeMappedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": userResponse(user)})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{}

	for name, err := range s.service.Ready(r.Context()) {
		if err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := optionalPositiveInt(query, "page")
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	size, err := optionalPositiveInt(query, "size")
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	in := SearchInput{Query: query.Get("query"), Page: page, Size: size}
	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			in.UserID = &userID
		} else {
			s.log.Warn().Str("user_id", raw).Msg("ignoring malformed user_id on search")
		}
	}

	resp, err := s.service.Search(r.Context(), in)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !s.service.ReindexAllowed(r.Header.Get("X-Reindex-Token")) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	report, err := s.service.Reindex(r.Context())
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	if !report.Success() {
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"message": "Documents indexed with some errors.",
			"errors":  report.Failed,
			"indexed": report.Indexed,
			"skipped": report.Skipped,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Documents indexed successfully!",
		"indexed": report.Indexed,
		"skipped": report.Skipped,
	})
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = newRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		elapsed := time.Since(started)
		path := r.URL.Path
		if !routes[path] {
			path = "other"
		}
		s.metrics.ObserveHTTP(r.Method, path, writer.status, elapsed)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

// newRequestID returns "req_" followed by 32 random hex digits.
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return "req_" + hex.EncodeToString(buf[:])
}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Reindex-Token")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// optionalPositiveInt reads name from query. Absent means 0; anything other
// than a positive integer is a validation error.
func optionalPositiveInt(query map[string][]string, name string) (int, error) {
	values, ok := query[name]
	if !ok || len(values) == 0 {
		return 0, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil || value < 1 {
		return 0, validationError(name, fmt.Sprintf("The %s must be a positive integer.", name))
	}
	return value, nil
}

func requiredUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, validationError("user_id", "The user_id field is required.")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validationError("user_id", "The user_id must be an integer.")
	}
	return userID, nil
}

func userResponse(user store.User) map[string]any {
	return map[string]any{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"interest":   user.Interest,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	}
}
