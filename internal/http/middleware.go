package http

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
)

// currentUser returns the authenticated user stored by withAuth.
func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userKey).(core.User)
	return u
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// withSecurity adds security headers, rate limiting, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
		}

		// Rate limit mutating requests only; reads stay cheap.
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// withAuth verifies the bearer token and resolves the local user record.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurity(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			// Websocket clients cannot set headers from the browser API.
			if t := r.URL.Query().Get("token"); t != "" {
				header = "Bearer " + t
			}
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := s.tokens.Verify(token)
		if err != nil {
			slog.WarnContext(r.Context(), "Token verification failed", "error", err)
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := s.users.Resolve(r.Context(), identity)
		if err != nil {
			slog.ErrorContext(r.Context(), "User resolution failed", "error", err, "subject", identity.Subject)
			s.failure(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	})
}

// withAdmin additionally requires the admin role.
func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withAuth(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != core.RoleAdmin {
			respond.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}
