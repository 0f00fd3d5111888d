// Package server exposes the command bus, link previews and a health check
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aleister1102/pagewatch/internal/auth"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/diagnostics"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// LinkReader is the store access needed by the HTTP handlers.
type LinkReader interface {
	GetLink(ctx context.Context, url string) (models.Link, error)
	Ping(ctx context.Context) error
}

// DiagnosticsReader exposes the latest monitor diagnostics snapshot.
type DiagnosticsReader interface {
	Last() (diagnostics.Snapshot, bool)
}

// Server is the HTTP listener of pagewatch.
type Server struct {
	*http.Server

	store        LinkReader
	diagnostics  DiagnosticsReader
	previewCache *lru.Cache[string, string]
	policy       *bluemonday.Policy
	logger       zerolog.Logger
}

// New wires the routes. hub serves the command bus and is mounted on /ws.
func New(cfg config.ServerConfig, hub http.Handler, store LinkReader, authn *auth.Authenticator, logger zerolog.Logger) (*Server, error) {
	logger = logger.With().Str("component", "HTTPServer").Logger()

	cacheSize := cfg.PreviewCacheSize
	if cacheSize <= 0 {
		cacheSize = config.DefaultServerPreviewCache
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, common.WrapError(err, "failed to create preview cache")
	}

	policy := bluemonday.UGCPolicy()
	// Keeps the mask marker visible in previews.
	policy.AllowComments()

	srv := &Server{
		store:        store,
		previewCache: cache,
		policy:       policy,
		logger:       logger,
	}

	r := mux.NewRouter().SkipClean(true)
	r.Use(accessLogMiddleware(logger))
	r.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(authn.Middleware)
	authed.Handle("/ws", hub).Methods(http.MethodGet)
	authed.HandleFunc("/preview/{url:.*}", srv.handlePreview).Methods(http.MethodGet)

	var handler http.Handler = r
	if len(cfg.AllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.AllowedOrigins),
			handlers.AllowCredentials(),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"authorization", "content-type"}),
		)(handler)
	}
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
		handlers.PrintRecoveryStack(true),
	)(handler)

	srv.Server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout(),
	}

	logger.Debug().Str("addr", cfg.ListenAddr).Msg("Configured HTTP server")
	return srv, nil
}

// WithDiagnostics adds the latest diagnostics snapshot to /healthz.
func (s *Server) WithDiagnostics(d DiagnosticsReader) *Server {
	s.diagnostics = d
	return s
}

// OriginHosts turns configured CORS origins into the host patterns used by
// the WebSocket handshake.
func OriginHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			hosts = append(hosts, "*")
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			hosts = append(hosts, origin)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// statusFor maps an error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
