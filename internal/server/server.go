// Package server exposes the puzzle over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"lottawords/internal/logging"
	"lottawords/internal/service"
)

const (
	// ReadHeaderTimeout limits how long the server waits for request headers.
	ReadHeaderTimeout = 5 * time.Second
	// ShutdownTimeout limits how long in-flight requests get to drain.
	ShutdownTimeout = 5 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"join": joinWords}).
	ParseFS(templateFS, "templates/index.html"))

// PuzzleService is what the handlers need from the service layer.
type PuzzleService interface {
	Puzzle(ctx context.Context) service.Result
	Status(ctx context.Context) service.Status
	Debug(ctx context.Context) (service.DebugReport, error)
}

// Config defines the inputs for the API server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// RequestTimeout bounds each request. Zero disables the limit.
	RequestTimeout time.Duration
}

// Server hosts the API.
type Server struct {
	addr       string
	httpServer *http.Server
}

type handler struct {
	svc PuzzleService
	now func() time.Time
}

// New builds the server and its middleware stack.
func New(cfg Config, svc PuzzleService) *Server {
	return &Server{
		addr: cfg.Addr,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(cfg, svc),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// NewHandler returns the routed, wrapped handler.
func NewHandler(cfg Config, svc PuzzleService) http.Handler {
	h := &handler{svc: svc, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/puzzle", h.puzzle)
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/debug", h.debug)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /{$}", h.index)

	var next http.Handler = mux
	if cfg.RequestTimeout > 0 {
		next = withTimeout(next, cfg.RequestTimeout)
	}
	next = newCORS(cfg.AllowedOrigins).Handler(next)
	next = accessLog(next)
	next = requestID(next)
	return otelhttp.NewHandler(next, "lottawords",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// Handler exposes the wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context ends, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logging.Get(logging.CategoryHTTP)
	serveErr := make(chan error, 1)
	log.Info("listening", zap.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (h *handler) puzzle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Puzzle(r.Context()).Payload())
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}

func (h *handler) debug(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Debug(r.Context())
	if err != nil {
		logging.Get(logging.CategoryHTTP).Error("Error in debug endpoint", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

type indexView struct {
	Sides         []string
	NYTSolution   []string
	LottaSolution []string
	Loading       bool
	Message       string
	Error         string
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Puzzle(r.Context())

	view := indexView{Loading: res.Loading}
	switch {
	case res.Loading:
		view.Message = service.MsgLoading
	case !res.Data.OK():
		view.Error = res.Data.Err()
	default:
		view.Sides = res.Data.Square.Sides()
		view.NYTSolution = res.Data.NYTSolution
		view.LottaSolution = res.Data.LottaSolution
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, view); err != nil {
		logging.Get(logging.CategoryHTTP).Error("render index", zap.Error(err))
	}
}

// writeJSON writes JSON responses with a consistent content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

// joinWords is used by the index template.
func joinWords(words []string) string {
	return strings.Join(words, ", ")
}
