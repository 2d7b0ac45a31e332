package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type scope int

const (
	scopeRead scope = iota + 1
	scopeWrite
)

type scopeKey struct{}

// Authenticate resolves the bearer key to a scope. The ingest key may do
// everything; the read key, when configured, only reaches routes without
// RequireWrite.
func Authenticate(writeKey, readKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			var sc scope
			switch {
			case keyMatches(token, writeKey):
				sc = scopeWrite
			case keyMatches(token, readKey):
				sc = scopeRead
			default:
				log.Warn("rejected api key", "path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()))
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, sc)))
		})
	}
}

// RequireWrite guards the routes that change the project: ingest and purge.
func RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sc, _ := r.Context().Value(scopeKey{}).(scope); sc != scopeWrite {
			jsonError(w, "api key is read-only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keyMatches(token, key string) bool {
	return key != "" && subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1
}

// RequestLogger logs each request under its route pattern, so lookups of
// different documents and chunks share one route label.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "request",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
