package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/requestctx"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/usecase"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

// Server is the HTTP boundary: it exposes the validation-funneled write
// endpoints, the bulk import validator and the health probes. All request
// bodies pass through the validation entry points before any gateway call.
type Server struct {
	httpServer    *http.Server
	router        *mux.Router
	opportunities *usecase.OpportunityService
	importWorker  usecase.IImportWorker
	logger        *zap.Logger
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(port string, opportunities *usecase.OpportunityService, importWorker usecase.IImportWorker, log *zap.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		router:        router,
		opportunities: opportunities,
		importWorker:  importWorker,
		logger:        log,
	}

	router.Use(s.requestIDMiddleware, s.recoveryMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/opportunities", s.handleCreateOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/quick-create", s.handleQuickCreateOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}", s.handleUpdateOpportunity).Methods(http.MethodPatch)
	api.HandleFunc("/opportunities/{id}/close", s.handleCloseOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/validate/contacts", s.handleValidateContact).Methods(http.MethodPost)
	api.HandleFunc("/validate/activities", s.handleValidateActivity).Methods(http.MethodPost)
	api.HandleFunc("/imports/contacts", s.handleImportContacts).Methods(http.MethodPost)

	return s
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.router.Handle("/metrics", handler).Methods(http.MethodGet)
}

// Router exposes the route table for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins the HTTP server
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// requestIDMiddleware tags each request with an id, honoring an inbound
// X-Request-ID header, and scopes the logger to it.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestctx.WithRequestID(r.Context(), requestID)
		ctx = logger.WithLogger(ctx, s.logger)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware converts handler panics into 500s instead of dropping
// the connection.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("[panic] Recovered from panic in handler",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", r.URL.Path),
				)
				utils.WriteJSONResponse(w, http.StatusInternalServerError, map[string]string{
					"message": "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "UP",
		Version: "1.0.0",
	}
	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "READY",
		Details: map[string]string{
			"timestamp": utils.FormatISO8601(utils.Now()),
		},
	}
	utils.WriteJSONResponse(w, http.StatusOK, resp)
}
