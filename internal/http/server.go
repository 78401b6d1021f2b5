// Package http serves the dashboard pages, their HTMX fragments and a small
// JSON API over the caller's session ledger.
package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"aurum/internal/log"
	"aurum/internal/metrics"
	"aurum/internal/middleware/ratelimit"
	"aurum/internal/middleware/security"
	"aurum/internal/middleware/trace"
	"aurum/internal/services"
	"aurum/internal/session"
	appweb "aurum/web"
)

// Options wires the server to the rest of the application.
type Options struct {
	Sessions *session.Store
	Assets   *services.AssetService
	Logger   *log.Logger

	// PercentileSource returns the random source for one overview
	// computation. Nil means a fresh time-seeded source each time.
	PercentileSource func() rand.Source

	RateLimitPerMinute int

	// TrustedProxies are CIDRs whose forwarding headers name the client.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Store
	assets    *services.AssetService
	newSource func() rand.Source

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector

	ready        atomic.Bool
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(session.DefaultConfig(), nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Assets == nil {
		opts.Assets = services.NewAssetService(nil, opts.Logger)
	}
	if opts.PercentileSource == nil {
		opts.PercentileSource = metrics.NewTimeSource
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			opts.Logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		sessions:  opts.Sessions,
		assets:    opts.Assets,
		newSource: opts.PercentileSource,
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	// Session-scoped routes
	app := http.NewServeMux()
	app.HandleFunc("/", s.handleOverview)
	app.HandleFunc("/performance", s.handlePerformance)
	app.HandleFunc("/manage", s.handleManage)
	app.HandleFunc("/assets", s.handleCreateAsset)
	app.HandleFunc("/assets/delete", s.handleDeleteAsset)
	app.HandleFunc("/ui/asset-list", s.handleAssetList)
	app.HandleFunc("/api/overview", s.handleAPIOverview)
	app.HandleFunc("/api/performance", s.handleAPIPerformance)
	app.HandleFunc("/api/assets", s.handleAPIAssets)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		errorResponseFor(http.StatusTooManyRequests, "Too many changes. Please wait a minute and try again.").Write(w)
	})
	mux.Handle("/", limited(s.sessions.Middleware(app)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = log.Middleware(opts.Logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "aurum")

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	s.ready.Store(s.templates != nil)
	return s
}

// Shutdown stops accepting requests and releases background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a named template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldTemplate, name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// writeError logs err and answers with an escaped error fragment.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	args := log.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(errorTypeFor(status)).
		ToSlice()
	args = append(args, log.FieldStatusCode, status)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", args...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", args...)
	}
	errorResponseFor(status, userMessage(err)).Write(w)
}
