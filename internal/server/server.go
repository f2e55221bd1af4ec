package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
	"github.com/ChayanSD/reimburse-ai/internal/queue"
)

// Processor runs the extraction pipeline for one submitted receipt.
type Processor interface {
	Process(ctx context.Context, fileURL, filename, userID string) (*extraction.NormalizedRecord, error)
}

// RecordStore is the persistence surface the server needs: expense CRUD
// plus the per-(user, URL) result cache.
type RecordStore interface {
	SaveRecord(rec *extraction.NormalizedRecord) (*extraction.NormalizedRecord, error)
	GetRecord(userID, id string) (*extraction.NormalizedRecord, error)
	ListRecords(userID string) ([]*extraction.NormalizedRecord, error)
	DeleteRecord(userID, id string) error
	CachedResult(userID, fileURL string) (*extraction.NormalizedRecord, bool)
	CacheResult(userID, fileURL string, rec *extraction.NormalizedRecord) error
}

// Enqueuer accepts jobs for background processing.
type Enqueuer interface {
	Enqueue(job queue.Job) (queue.Job, error)
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for expenses
type Server struct {
	processor Processor
	store     RecordStore
	enqueuer  Enqueuer
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// NewServer creates a new Server with default mux. enqueuer may be nil, in
// which case async submissions are rejected.
func NewServer(processor Processor, store RecordStore, enqueuer Enqueuer, basicAuth BasicAuth) *Server {
	return NewServerWithMux(processor, store, enqueuer, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(processor Processor, store RecordStore, enqueuer Enqueuer, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		processor: processor,
		store:     store,
		enqueuer:  enqueuer,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Reimburse AI"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	s.mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))
	s.mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleSubmitExpense))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
