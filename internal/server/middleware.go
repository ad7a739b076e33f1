package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"lottawords/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// DefaultAllowedDomains are the production front ends.
var DefaultAllowedDomains = []string{
	"lottawords.vercel.app",
	"lottawords-frontend.vercel.app",
	"web-production-2361.up.railway.app",
}

type ctxKey struct{}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// timeoutBody is sent with the 503 when a request runs out of time.
const timeoutBody = `{"error":"request timed out"}`

// withTimeout bounds next by d. The JSON content type is preset because
// http.TimeoutHandler writes its body without one; handlers that finish in
// time replace it with their own headers.
func withTimeout(next http.Handler, d time.Duration) http.Handler {
	th := http.TimeoutHandler(next, d, timeoutBody)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		th.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logging.Get(logging.CategoryHTTP).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", RequestID(r.Context())))
	})
}

// allowOrigin accepts local development servers, Vercel previews and any
// origin ending in one of domains.
func allowOrigin(domains []string) func(string) bool {
	return func(origin string) bool {
		if origin == "" {
			return false
		}
		if strings.HasPrefix(origin, "http://localhost:") {
			return true
		}
		if strings.HasSuffix(origin, ".vercel.app") {
			return true
		}
		for _, d := range domains {
			if d != "" && strings.HasSuffix(origin, d) {
				return true
			}
		}
		return false
	}
}

func newCORS(domains []string) *cors.Cors {
	if len(domains) == 0 {
		domains = DefaultAllowedDomains
	}
	return cors.New(cors.Options{
		AllowOriginFunc:  allowOrigin(domains),
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
}
