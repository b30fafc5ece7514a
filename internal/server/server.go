package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/osse101/DCM_Go/internal/handler"
	"github.com/osse101/DCM_Go/internal/logger"
	"github.com/osse101/DCM_Go/internal/metrics"
	"github.com/osse101/DCM_Go/internal/settlement"
	"github.com/osse101/DCM_Go/internal/sse"
)

// Config holds the HTTP-level settings of the API server
type Config struct {
	Port            int
	APIKey          string
	TrustedProxies  []string
	MaxRequestBytes int64 // 0 means DefaultMaxRequestBytes
}

type Server struct {
	httpServer *http.Server
	hub        *sse.Hub
}

// NewServer creates a new Server instance
func NewServer(cfg Config, service settlement.Service, hub *sse.Hub) *Server {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = DefaultMaxRequestBytes
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           newRouter(cfg, service, hub),
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			// No WriteTimeout: /api/v1/events streams for the life of the client
		},
		hub: hub,
	}
}

func newRouter(cfg Config, service settlement.Service, hub *sse.Hub) http.Handler {
	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(loggingMiddleware)
	r.Use(AuthMiddleware(cfg.APIKey, cfg.TrustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(cfg.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(cfg.MaxRequestBytes))
	r.Use(metrics.Middleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(service))
	r.Get("/version", handler.HandleVersion())
	r.Handle("/metrics", promhttp.Handler())

	payouts := handler.NewPayoutHandler(service)
	scenarios := handler.NewScenarioHandler(service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", payouts.HandleCompute)
			r.Post("/batch", payouts.HandleComputeBatch)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/", scenarios.HandleCreate)
			r.Get("/", scenarios.HandleList)
			r.Route("/{"+handler.URLParamID+"}", func(r chi.Router) {
				r.Get("/", scenarios.HandleGet)
				r.Delete("/", scenarios.HandleDelete)
				r.Get("/export", scenarios.HandleExport)
			})
		})

		if hub != nil {
			r.Get("/events", sse.Handler(hub))
		}
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush keeps the event stream working behind the logger
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Probes and scrapes are too frequent to log
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		// Honour an upstream request ID so logs correlate across hops
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	logger.Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop closes event streams and drains HTTP connections
func (s *Server) Stop(ctx context.Context) error {
	if s.hub != nil {
		// event streams never finish on their own
		s.hub.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
