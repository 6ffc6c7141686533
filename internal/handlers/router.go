// Package handlers is the HTTP surface of the local node: authentication,
// sync control, shortage workflow actions and the device event stream.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/buildinfo"
	"github.com/xelth-com/fieldopsgo/internal/config"
	"github.com/xelth-com/fieldopsgo/internal/database"
	"github.com/xelth-com/fieldopsgo/internal/middleware"
	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/repo"
	syncpkg "github.com/xelth-com/fieldopsgo/internal/sync"
	"github.com/xelth-com/fieldopsgo/internal/websocket"
	"github.com/xelth-com/fieldopsgo/internal/workflow"
)

// Router wraps the mux router and the services the handlers act on.
type Router struct {
	*mux.Router
	db       *database.DB
	cfg      *config.Config
	wf       *workflow.Workflow
	syncSvc  *syncpkg.Service
	failed   *repo.FailedOps
	hub      *websocket.Hub
}

// NewRouter creates the HTTP router with all routes.
func NewRouter(db *database.DB, cfg *config.Config, wf *workflow.Workflow, syncSvc *syncpkg.Service, hub *websocket.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		db:      db,
		cfg:     cfg,
		wf:      wf,
		syncSvc: syncSvc,
		failed:  repo.NewFailedOps(db.DB),
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")

	// Device event stream
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	authed := middleware.AuthMiddleware(cfg.JWTSecret)

	// Sync control (any authenticated role)
	sync := r.PathPrefix("/api/sync").Subrouter()
	sync.Use(authed)
	sync.HandleFunc("/trigger", r.triggerSync).Methods("POST")
	sync.HandleFunc("/status", r.syncStatus).Methods("GET")
	sync.HandleFunc("/failed", r.listFailedOps).Methods("GET")

	// Shortage reporting (salesman and admin)
	shortages := r.PathPrefix("/api/shortages").Subrouter()
	shortages.Use(authed)
	shortages.HandleFunc("", r.listShortages).Methods("GET")
	shortages.HandleFunc("", r.reportShortage).Methods("POST")
	shortages.HandleFunc("/{id}/viewed", r.markViewed).Methods("POST")
	shortages.HandleFunc("/{id}/lines", r.addLine).Methods("POST")
	shortages.HandleFunc("/{id}/complete", r.completeShortage).Methods("POST")
	shortages.HandleFunc("/{id}/packing-slip", r.packingSlip).Methods("GET")

	// Per-line workflow transitions
	lines := r.PathPrefix("/api/lines").Subrouter()
	lines.Use(authed)
	lines.HandleFunc("/{id}/assign", r.assignSupplier).Methods("POST")
	lines.HandleFunc("/{id}/send", r.sendToSupplier).Methods("POST")
	lines.HandleFunc("/{id}/respond", r.supplierRespond).Methods("POST")
	lines.HandleFunc("/{id}/accept", r.adminAccept).Methods("POST")
	lines.HandleFunc("/{id}/reject", r.adminReject).Methods("POST")
	lines.HandleFunc("/{id}/not-available", r.markNotAvailable).Methods("POST")
	lines.HandleFunc("/{id}/cancel", r.cancelLine).Methods("POST")

	// Packing ledger (storekeeper side channel)
	packing := r.PathPrefix("/api/packing").Subrouter()
	packing.Use(authed, middleware.RequireRole(models.RoleStorekeeper, models.RoleAdmin))
	packing.HandleFunc("/{id}", r.pack).Methods("POST")
	packing.HandleFunc("/{id}", r.unpack).Methods("DELETE")

	return r
}

// healthCheck returns the health status of the node
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	version, _ := r.db.SchemaVersion()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"schema_version": version,
		"build":          buildinfo.Summary(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondAppError maps the error taxonomy onto HTTP status codes.
func respondAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		respondError(w, http.StatusBadRequest, err.Error())
	case apperr.KindNetwork:
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case apperr.KindServer:
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
