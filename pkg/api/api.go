// Package api is the HTTP surface: workspace CRUD plus read access to
// inventory, recommendations, and job runs.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/costlens/costlens/pkg/models"
	"github.com/costlens/costlens/pkg/store"
)

type Server struct {
	store store.Store
	log   *slog.Logger
}

func NewServer(st store.Store, log *slog.Logger) *Server {
	return &Server{store: st, log: log}
}

// Router wires all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/workspaces", s.handleListWorkspaces).Methods(http.MethodGet)
	api.HandleFunc("/workspaces", s.handleCreateWorkspace).Methods(http.MethodPost)
	api.HandleFunc("/workspaces/{id}", s.handleGetWorkspace).Methods(http.MethodGet)
	api.HandleFunc("/workspaces/{id}", s.handleDeleteWorkspace).Methods(http.MethodDelete)
	api.HandleFunc("/workspaces/{id}/resources", s.handleListResources).Methods(http.MethodGet)
	api.HandleFunc("/workspaces/{id}/recommendations", s.handleListRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/workspaces/{id}/runs/latest", s.handleLatestRun).Methods(http.MethodGet)
	api.HandleFunc("/recommendations/{id}/status", s.handleUpdateRecommendationStatus).Methods(http.MethodPatch)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("[api] response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrWorkspaceHasChildren):
		s.writeError(w, http.StatusConflict, "workspace still has resources, recommendations, or job runs")
	default:
		s.log.Error("[api] store error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createWorkspaceRequest struct {
	Name         string `json:"name"`
	RoleArn      string `json:"roleArn"`
	AWSAccountID string `json:"awsAccountId"`
	UserID       string `json:"userId"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.RoleArn == "" {
		s.writeError(w, http.StatusBadRequest, "name and roleArn are required")
		return
	}

	ws := &models.Workspace{
		Name:         req.Name,
		RoleArn:      req.RoleArn,
		AWSAccountID: req.AWSAccountID,
		UserID:       req.UserID,
		Status:       models.WorkspaceStatusPending,
	}
	if err := s.store.CreateWorkspace(r.Context(), ws); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info("[api] workspace created", "workspace", ws.ID, "name", ws.Name)
	s.writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.store.ListWorkspaces(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspace(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWorkspace(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.GetWorkspace(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	resources, err := s.store.ListResources(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resources)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.GetWorkspace(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	filter := store.RecommendationFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
	}
	recommendations, err := s.store.ListRecommendations(r.Context(), id, filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recommendations)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.LatestJobRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// handleUpdateRecommendationStatus is the only writer of a recommendation's
// status; the engine preserves whatever is set here.
func (s *Server) handleUpdateRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Status {
	case models.RecStatusNew, models.RecStatusAcknowledged, models.RecStatusDismissed:
	default:
		s.writeError(w, http.StatusBadRequest, "status must be new, acknowledged, or dismissed")
		return
	}

	if err := s.store.UpdateRecommendationStatus(r.Context(), mux.Vars(r)["id"], req.Status); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
