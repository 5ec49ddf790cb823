package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"velorent/internal/config"
	"velorent/internal/metrics"
	"velorent/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	requestIDKey
	apiClientKey
)

const (
	headerRequestID   = "X-Request-ID"
	permissionWebhook = "payments:webhook"
)

func principalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		metrics.ObserveHTTP(route, r.Method, recorder.status, dur)

		ev := s.logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			ev = s.logger.Error()
		}
		ev.Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ev := s.logger.Error().Interface("panic", rec).Str("request_id", requestIDFrom(r.Context()))
			if !s.cfg.App.IsProduction() {
				ev = ev.Bytes("stack", debug.Stack())
			}
			ev.Msg("handler panic")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) cors(next http.Handler) http.Handler {
	allowed := s.cfg.HTTP.AllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(allowed, "*") || slices.Contains(allowed, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, "+headerRequestID)
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) maxBody(next http.Handler) http.Handler {
	limit := s.cfg.HTTP.MaxBodyBytes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves a bearer token into a principal when one is sent.
// Anonymous requests pass through; requireAuth rejects them where needed.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || s.deps.Verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
			return
		}
		p, err := s.deps.Verifier.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAPIKey admits server-to-server callers holding the permission.
// A key with no permissions listed may call every key-protected route.
func (s *HTTPServer) requireAPIKey(permission string) func(http.Handler) http.Handler {
	clients := s.cfg.Auth.APIKeys
	header := s.cfg.Auth.HeaderAPIKey
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(header))
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			client, ok := matchAPIKey(clients, key)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			if len(client.Permissions) > 0 && !slices.Contains(client.Permissions, permission) {
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), apiClientKey, client.Name)))
		})
	}
}

func matchAPIKey(clients []config.APIClientKey, key string) (config.APIClientKey, bool) {
	for _, c := range clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(key)) == 1 {
			return c, true
		}
	}
	return config.APIClientKey{}, false
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.allow(s.clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) clientKey(r *http.Request) string {
	if p, ok := principalFrom(r.Context()); ok {
		return "user:" + strconv.FormatInt(p.UserID, 10)
	}
	if key := strings.TrimSpace(r.Header.Get(s.cfg.Auth.HeaderAPIKey)); key != "" {
		return "key:" + key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
