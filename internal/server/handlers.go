package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/lookup"
	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req lookup.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.User.TelegramID == 0 {
		s.respondError(w, http.StatusBadRequest, "user.user_id is required")
		return
	}
	t, err := models.ParseSearchType(string(req.Type))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Type = t
	s.logger.Debug("search request", zap.Int64("user_id", req.User.TelegramID), zap.String("query", req.Query))

	resp, err := s.deps.Lookup.Handle(r.Context(), req)
	if err != nil {
		s.logger.Error("lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	switch resp.Outcome {
	case lookup.OutcomeQueued:
		status = http.StatusAccepted
	case lookup.OutcomeTooShort:
		status = http.StatusUnprocessableEntity
	case lookup.OutcomeBlocked:
		status = http.StatusForbidden
	case lookup.OutcomeQuotaExceeded:
		status = http.StatusTooManyRequests
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.Queue.Pending(r.Context())
	if err != nil {
		s.logger.Error("list queue failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		pending = []*models.QueuedQuery{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"pending": pending, "count": len(pending)})
}

func (s *Server) handleQueueDrain(w http.ResponseWriter, r *http.Request) {
	processed, ran := s.deps.Queue.Drain(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"processed": processed, "ran": ran})
}

func (s *Server) handleIndexesList(w http.ResponseWriter, r *http.Request) {
	names := s.deps.Registry.Names()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"indexes":      names,
		"count":        len(names),
		"refreshed_at": s.deps.Registry.RefreshedAt(),
	})
}

func (s *Server) handleIndexesReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Registry.Refresh(r.Context()); err != nil {
		s.logger.Error("index reload failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.handleIndexesList(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userCount, err := s.deps.Storage.CountUsers(ctx)
	if err != nil {
		s.logger.Error("status: count users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	searchCount, err := s.deps.Storage.CountSearches(ctx)
	if err != nil {
		s.logger.Error("status: count searches failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pending, err := s.deps.Queue.Pending(ctx)
	if err != nil {
		s.logger.Error("status: list queue failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	available := s.deps.Probe.IsAvailable(ctx)
	names := s.deps.Registry.Names()
	resp := map[string]interface{}{
		"users":             userCount,
		"searches":          searchCount,
		"pending_queries":   len(pending),
		"indexes":           len(names),
		"backend_available": available,
		"time":              time.Now().UTC(),
	}
	if available && s.deps.Backend != nil {
		resp["documents"] = backend.TotalDocuments(ctx, s.deps.Backend, names)
	}

	configInfo := map[string]interface{}{
		"backend":       s.config.Backend.Kind,
		"database_path": s.config.Storage.DatabasePath,
		"free_searches": s.deps.Lookup.FreeSearches(),
		"cache_enabled": s.config.Cache.Enabled,
	}
	indexRoot := ""
	if s.config.Backend.Kind == "bleve" {
		configInfo["bleve_path"] = s.config.Backend.Bleve.Path
		indexRoot = s.config.Backend.Bleve.Path
	}
	if usage, err := storage.MeasureDiskUsage(s.config.Storage.DatabasePath, indexRoot); err == nil {
		resp["disk_usage_bytes"] = usage.Total
		resp["disk_usage"] = usage
	} else {
		s.logger.Warn("disk usage failed", zap.Error(err))
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
