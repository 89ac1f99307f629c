package invoice

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Server handles HTTP requests for invoices
type Server struct {
	service       *Service
	mux           *http.ServeMux
	allowedOrigin string
	maxBodySize   int64
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithAllowedOrigin lets pages served from origin call the API. "*" allows
// any origin. Without it only same-origin pages can use the API.
func WithAllowedOrigin(origin string) ServerOption {
	return func(s *Server) { s.allowedOrigin = origin }
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, opts ...ServerOption) *Server {
	return NewServerWithMux(service, http.NewServeMux(), opts...)
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux, opts ...ServerOption) *Server {
	s := &Server{
		service:     service,
		mux:         mux,
		maxBodySize: maxDraftSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers for the allowed origin. Requests from
// other origins get no CORS headers and may only read.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || sameOrigin(origin, r.Host) {
			next.ServeHTTP(w, r)
			return
		}

		allowed := s.allowedOrigin == "*" || strings.EqualFold(origin, s.allowedOrigin)
		if !allowed {
			// Simple cross-site requests skip the preflight; refuse writes here
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				slog.Warn("Rejecting cross-origin request", "origin", origin, "method", r.Method, "path", r.URL.Path)
				jsonError(w, "Cross-origin request not allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		setCORSHeaders(w, origin)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sameOrigin reports whether the Origin header names the host serving r
func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// requireReady answers 503 until the store has loaded its mirror
func (s *Server) requireReady(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.service.Ready() {
			jsonError(w, "Invoices are still loading, try again shortly", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

// handleStatic serves the embedded UI assets with their MIME type
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, ".js") {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	r.URL.Path = strings.TrimPrefix(r.URL.Path, "/static")
	http.FileServer(http.FS(getStaticFS())).ServeHTTP(w, r)
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/", s.handleStatic)

	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	s.mux.HandleFunc("POST /api/invoices/extract", s.handleExtractInvoice)
	s.mux.HandleFunc("POST /api/invoices/suggest", s.handleSuggest)
	s.mux.HandleFunc("GET /api/invoices/{id}/document", s.requireReady(s.handleGetInvoiceDocument))
	s.mux.HandleFunc("GET /api/invoices/{id}", s.requireReady(s.handleGetInvoice))
	s.mux.HandleFunc("PUT /api/invoices/{id}", s.requireReady(s.handleUpdateInvoice))
	s.mux.HandleFunc("DELETE /api/invoices/{id}", s.requireReady(s.handleDeleteInvoice))
	s.mux.HandleFunc("GET /api/invoices", s.requireReady(s.handleListInvoices))
	s.mux.HandleFunc("POST /api/invoices", s.requireReady(s.handleCreateInvoice))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.handleIndex)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns the mux wrapped with the CORS middleware
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
