package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trendgraph/internal/annotations"
	"trendgraph/internal/config"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/storage"
)

var errSnapshotsDisabled = errors.New("snapshot storage is not configured")

// HandleHealth provides health check endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snapshots := "ok"
	if s.Snapshots == nil {
		snapshots = "disabled"
	}
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.GetVersion(),
		"panels":    s.panels.len(),
		"checks": map[string]string{
			"engine":      s.Engine.Name(),
			"annotations": s.Config.AnnotationBackend,
			"snapshots":   snapshots,
		},
	}
	writeJSON(w, http.StatusOK, health)
}

// annotationRequest is the body of the annotation endpoints
type annotationRequest struct {
	DashboardItem string `json:"dashboard_item"`
	Content       string `json:"content"`
	Date          string `json:"date"`
}

// HandleListAnnotations lists the annotations of one dashboard item
func (s *Server) HandleListAnnotations(w http.ResponseWriter, r *http.Request) {
	scope := annotations.Scope{DashboardItem: r.URL.Query().Get("dashboard_item")}
	model, err := s.Registry.For(r.Context(), scope)
	if err != nil {
		s.log.Error("Failed to load annotations", err, logger.Fields{"scope": scope.Key()})
		writeError(w, http.StatusBadGateway, err)
		return
	}
	list := model.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": list,
		"count":   len(list),
		"staged":  len(model.Staged()),
	})
}

// HandleCreateAnnotation creates an annotation, staged when the dashboard
// item is not saved yet
func (s *Server) HandleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := models.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q: %w", req.Date, err))
		return
	}

	scope := annotations.Scope{DashboardItem: req.DashboardItem}
	model, err := s.Registry.For(r.Context(), scope)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	created, err := annotations.Submit(r.Context(), model, req.Content, date)
	if err != nil {
		s.log.Warn("Annotation rejected", logger.Fields{"scope": scope.Key(), "error": err.Error()})
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"annotation": created,
		"staged":     annotations.IsStaged(created),
	})
}

// HandleCommitAnnotations writes the staged annotations of one dashboard item
func (s *Server) HandleCommitAnnotations(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	scope := annotations.Scope{DashboardItem: req.DashboardItem}
	model, err := s.Registry.For(r.Context(), scope)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	committed, err := model.Commit(r.Context())
	if err != nil {
		s.log.Error("Commit failed", err, logger.Fields{"scope": scope.Key(), "committed": committed})
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":     err.Error(),
			"committed": committed,
			"remaining": len(model.Staged()),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"committed": committed,
		"remaining": len(model.Staged()),
	})
}

// HandleListSnapshots lists recent snapshots
func (s *Server) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errSnapshotsDisabled)
		return
	}

	// Get limit from query parameter (default 10)
	limit, err := intParam(r, "limit", 10)
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Cap at 100
	}

	list, err := s.Snapshots.List(r.Context(), limit)
	if err != nil {
		s.log.Error("Failed to list snapshots", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": list,
		"count":     len(list),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleSnapshotFile serves one file of a stored snapshot
func (s *Server) HandleSnapshotFile(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errSnapshotsDisabled)
		return
	}
	filePath := r.PathValue("path")
	if filePath == "" {
		http.Error(w, "File path required", http.StatusBadRequest)
		return
	}
	if strings.Contains(filePath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	if strings.HasSuffix(filePath, "/") {
		filePath += "index.html"
	}

	data, err := s.Snapshots.GetFile(r.Context(), filePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		s.log.Error("Failed to get snapshot file", err, logger.Fields{"path": filePath})
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", storage.GetContentType(filePath))
	if s.Config.IsProduction() {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Write(data)
}
