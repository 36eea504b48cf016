package webhook

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
)

//go:embed static/index.html
var staticFS embed.FS

type ServerConfig struct {
	Addr      string
	AuthToken string
	PublicURL string
}

// Server exposes the Twilio webhooks and the homepage.
type Server struct {
	cfg        ServerConfig
	notifier   Notifier
	router     chi.Router
	httpServer *http.Server
}

func NewServer(cfg ServerConfig, notifier Notifier) *Server {
	s := &Server{
		cfg:      cfg,
		notifier: notifier,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: requestLog{}, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(RequireSignature(s.cfg.AuthToken, s.cfg.PublicURL))
		r.Post("/message", Handler(MessageKind, s.notifier))
		r.Post("/call", Handler(CallKind, s.notifier))
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts webhooks on ln until ctx is cancelled. It returns only after
// in-flight requests have finished or the 5s shutdown budget ran out.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.InfoCF("webhook", "Webhook server listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownDone <- s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook serve: %w", err)
	}

	if err := <-shutdownDone; err != nil {
		logger.ErrorCF("webhook", "Webhook server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("webhook shutdown: %w", err)
	}
	logger.InfoC("webhook", "Webhook server stopped")
	return nil
}

// requestLog feeds chi's request log lines into the component logger.
type requestLog struct{}

func (requestLog) Print(v ...interface{}) {
	logger.InfoCF("http", fmt.Sprint(v...), nil)
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}
