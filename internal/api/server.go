// Package api exposes the assessment service over HTTP with a chi router.
//
// Routes live under /api. Error bodies are JSON objects with "error" and
// "message" keys plus a detail field specific to the failure.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/harrison/attune/internal/logger"
	"github.com/harrison/attune/internal/questionnaire"
	"github.com/harrison/attune/internal/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 10 << 20

// Options configures a Server.
type Options struct {
	// AllowedOrigins for CORS; "*" or empty allows any origin.
	AllowedOrigins []string
	Version        string
	Logger         logger.Logger
	// AccessLog enables chi's request logger on stderr.
	AccessLog bool
	Clock     func() time.Time
	// PDFFont is the TrueType font for PDF reports; empty searches the
	// usual system locations.
	PDFFont string
}

// Server holds the handlers' dependencies.
type Server struct {
	svc      *session.Service
	log      logger.Logger
	validate *validator.Validate
	origins  []string
	version  string
	access   bool
	pdfFont  string
	now      func() time.Time
	started  time.Time
}

// NewServer builds a Server around svc.
func NewServer(svc *session.Service, opts Options) *Server {
	s := &Server{
		svc:      svc,
		log:      opts.Logger,
		validate: newValidator(),
		origins:  opts.AllowedOrigins,
		version:  opts.Version,
		access:   opts.AccessLog,
		pdfFont:  opts.PDFFont,
		now:      opts.Clock,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.started = s.now()
	return s
}

func (s *Server) questionnaire() *questionnaire.Questionnaire {
	return s.svc.Engine().Questionnaire()
}

// Router returns the full HTTP handler with middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.access {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))
	r.Use(s.cors)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Message: "Route " + req.URL.Path + " not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Message: req.Method + " is not supported on " + req.URL.Path})
	})

	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, s)
	})
	return r
}

// RegisterRoutes mounts the API handlers on r.
func RegisterRoutes(r chi.Router, s *Server) {
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleInfo)

	r.Route("/assessment", func(r chi.Router) {
		r.Get("/questions", s.handleQuestions)
		r.Post("/session", s.handleCreateSession)
		r.Post("/submit", s.handleSubmit)
		r.Get("/results/{sessionId}", s.handleResults)
		r.Get("/results/{sessionId}/report", s.handleReport)
		r.Get("/stats", s.handleStats)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, X-Request-Id")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed.
func (s *Server) allowOrigin(origin string) string {
	if len(s.origins) == 0 {
		return "*"
	}
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
