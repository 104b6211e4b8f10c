package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsync/internal/core"
	"finsync/internal/http/respond"
	"finsync/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB request body cap

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown payloads
// over the size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// validationField maps a domain validation error to the request field it
// concerns. Unmapped errors fall under "request".
func validationField(err error) (string, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidKind):
		return "type", true
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount", true
	case errors.Is(err, core.ErrInvalidCategory):
		return "category", true
	case errors.Is(err, core.ErrInvalidMonth):
		return "month", true
	case errors.Is(err, core.ErrInvalidYear):
		return "year", true
	case errors.Is(err, core.ErrZeroDate):
		return "date", true
	case errors.Is(err, core.ErrEmptyTitle):
		return "title", true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "payment method"):
		return "paymentMethod", true
	case strings.Contains(msg, "investment type"):
		return "type", true
	case strings.Contains(msg, "name cannot be empty"):
		return "name", true
	case strings.Contains(msg, "goal status"):
		return "status", true
	case strings.Contains(msg, "currency"):
		return "currency", true
	case strings.Contains(msg, "alert status"), strings.Contains(msg, "cannot move from"):
		return "status", true
	}
	return "", false
}

// dbUnavailable reports whether an error looks like the database itself is
// unreachable rather than a bad request.
func dbUnavailable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "unable to open database")
}

// failure translates a service error into the right HTTP response.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "resource not found")
	case dbUnavailable(err):
		slog.ErrorContext(r.Context(), "Database unavailable", "error", err, "url", r.URL.Path)
		respond.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		if field, ok := validationField(err); ok {
			respond.Validation(w, map[string]string{field: err.Error()})
			return
		}
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryDate parses an RFC 3339 or YYYY-MM-DD date query parameter.
func queryDate(r *http.Request, name string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q", name, v)
	}
	return t, nil
}

// queryInt parses an optional integer query parameter, returning 0 when absent.
func queryInt(r *http.Request, name string) int {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// dateRange resolves optional startDate/endDate parameters. Absent
// parameters stay zero, which downstream queries treat as unbounded.
func dateRange(r *http.Request) (from, to time.Time, err error) {
	from, err = queryDate(r, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = queryDate(r, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
