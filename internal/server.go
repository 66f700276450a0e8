package internal

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/config"
	"github.com/damwatch/taskdesk/internal/rpc"
	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/clog"
)

// RouteProvider is implemented by every connect service server.
type RouteProvider interface {
	Routes(opts ...connect.HandlerOption) []rpc.Route
}

// APIMounter is implemented by the chi handlers served under /api.
type APIMounter interface {
	Mount(r chi.Router)
}

type Server struct {
	server   *http.Server
	env      *config.Env
	services []RouteProvider
	api      []APIMounter
}

func NewServer(env *config.Env, services []RouteProvider, api ...APIMounter) *Server {
	return &Server{
		env:      env,
		services: services,
		api:      api,
	}
}

// Handler builds the full HTTP handler: connect procedures, /api routes and
// health checks behind CORS and the API key check.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			middleware.RequestID,
			clog.SlogChiMiddleware(),
			cerr.NewConvertConnectErrorChiMiddleware(),
			actor.ChiMiddleware,
		)
		for _, m := range s.api {
			m.Mount(r)
		}
		// chi skips the Use chain when nothing matches, so unknown paths
		// need a route for the JSON error middleware to answer them.
		r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(s.serviceNames()...)))

	handlerOpts := connect.WithInterceptors(s.interceptors()...)
	for _, svc := range s.services {
		for _, route := range svc.Routes(handlerOpts) {
			mux.Handle(route.Path, route.Handler)
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux))
}

// ListenAndServe starts the HTTP server. ctx is the base context of every
// request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) serviceNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, svc := range s.services {
		for _, route := range svc.Routes() {
			// /taskdesk.v1.TaskService/CreateTask -> taskdesk.v1.TaskService
			name, _, _ := strings.Cut(strings.TrimPrefix(route.Path, "/"), "/")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckUnaryFilter)),
		actor.NewConnectInterceptor(),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for health endpoints.
		if r.URL.Path == "/health" || r.URL.Path == "/grpc.health.v1.Health/Check" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
