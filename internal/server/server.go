package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"brainvoice/internal/eventbus"
	applog "brainvoice/internal/log"
	"brainvoice/internal/session"
	"brainvoice/internal/summary"
	"brainvoice/internal/tool"
)

// TokenMinter exchanges the server credential for a realtime session token.
type TokenMinter interface {
	Mint(ctx context.Context, voice string) (json.RawMessage, error)
}

// Summarizer condenses a transcript into a stored summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (summary.Record, error)
}

// DialFunc opens the upstream realtime websocket.
type DialFunc func(ctx context.Context) (*websocket.Conn, error)

// Options wires the server to the rest of the application.
type Options struct {
	Addr               string
	Title              string
	DefaultVoice       string
	StaticDir          string
	RateLimitPerMinute int
	WriteTimeout       time.Duration

	Session    session.Config
	Registry   *tool.Registry
	Store      summary.Store
	Redactor   summary.Redactor
	Summarizer Summarizer // optional
	Tokens     TokenMinter
	Dial       DialFunc
	Bus        *eventbus.Bus
}

// Server is the HTTP front end.
type Server struct {
	opts     Options
	router   chi.Router
	index    *template.Template
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	now      func() time.Time
}

// New builds the router.
func New(opts Options) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	s := &Server{
		opts:  opts,
		index: template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: applog.WithComponent("server"),
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(requestMetrics)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}
	r.Get("/realtime", s.handleRealtime)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.opts.RateLimitPerMinute, time.Minute))
		r.Get("/token", s.handleToken)
		r.Get("/userdata", s.handleListSummaries)
		r.Post("/userdata", s.handleAppendSummary)
		r.Post("/userdata/summarize", s.handleSummarize)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}
