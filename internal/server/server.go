// Package server is a reference implementation of the sync service the
// engine talks to: versioned downloads, idempotent uploads, bearer-token
// auth. It backs the end-to-end tests and local development.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkrasnovs/fieldsync/internal/client/api"
	"github.com/dkrasnovs/fieldsync/internal/client/models"
	"github.com/dkrasnovs/fieldsync/internal/common"
	"github.com/dkrasnovs/fieldsync/internal/logging"
)

// Server exposes the sync HTTP API over a MemoryStore.
type Server struct {
	store *MemoryStore
	token string
	log   logging.Logger
}

// New builds the server. An empty token disables authentication.
func New(store *MemoryStore, token string, log logging.Logger) *Server {
	return &Server{store: store, token: token, log: log}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/download", s.handleDownload)
		r.Post("/upload", s.handleUpload)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), "Bearer ")
			if got != s.token {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req api.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	version, changed := s.store.Since(req.LastSyncVersion)

	resp := api.DownloadResponse{
		SyncVersion:      version,
		Tickets:          changed[models.EntityTicket],
		UtilityResponses: changed[models.EntityUtilityResponse],
		Projects:         changed[models.EntityProject],
		CrewMembers:      changed[models.EntityCrewMember],
		CostCodes:        changed[models.EntityCostCode],
		Equipment:        changed[models.EntityEquipment],
		TimeEntries:      changed[models.EntityTimeEntry],
		DailyReports:     changed[models.EntityDailyReport],
		EquipmentLogs:    changed[models.EntityEquipmentLog],
	}

	s.log.Debug(r.Context(), "download served",
		"user", req.UserID, "device", req.DeviceID,
		"since", req.LastSyncVersion, "version", version)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	resp := api.UploadResponse{Results: make([]api.UploadResult, 0, len(req.Items))}
	for _, item := range req.Items {
		resp.Results = append(resp.Results, s.store.Apply(item))
	}

	s.log.Debug(r.Context(), "upload served",
		"user", req.UserID, "device", req.DeviceID, "items", len(req.Items))
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
