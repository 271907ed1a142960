package server

import (
	"fmt"
	"net/http"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/config"
	"trendgraph/internal/fetchers"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
	"trendgraph/internal/reports"
)

// Server represents the main application server
type Server struct {
	Config    *config.Config
	Engine    charts.Engine
	Palettes  palette.Resolver
	Registry  *annotations.Registry
	Snapshots *reports.SnapshotService
	Fetcher   *fetchers.DataFetcher
	Viewer    models.Viewer

	panels   *panelStore
	dispatch annotations.Dispatch
	log      *logger.Logger
}

// NewServer creates a new server instance. snapshots may be nil, in which
// case the snapshot endpoints answer 503.
func NewServer(cfg *config.Config, registry *annotations.Registry, snapshots *reports.SnapshotService) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("annotation registry is required")
	}

	engine, err := charts.NewEngine(cfg.ChartEngine)
	if err != nil {
		return nil, err
	}

	var palettes palette.Resolver = palette.New()
	if cfg.PaletteFile != "" {
		loaded, err := palette.Load(cfg.PaletteFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load palette file: %w", err)
		}
		palettes = loaded
	}

	return &Server{
		Config:    cfg,
		Engine:    engine,
		Palettes:  palettes,
		Registry:  registry,
		Snapshots: snapshots,
		Fetcher:   fetchers.NewDataFetcher(),
		Viewer:    registry.Viewer(),
		panels:    newPanelStore(),
		dispatch:  annotations.GoDispatch,
		log:       logger.Component("server"),
	}, nil
}

// SetupRoutes configures HTTP routes for the server
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth)

	// Chart panels
	mux.HandleFunc("POST /panels", s.HandleCreatePanel)
	mux.HandleFunc("GET /panels/{id}", s.HandleGetPanel)
	mux.HandleFunc("PUT /panels/{id}", s.HandleUpdatePanel)
	mux.HandleFunc("DELETE /panels/{id}", s.HandleDeletePanel)
	mux.HandleFunc("POST /panels/{id}/resize", s.HandleResize)
	mux.HandleFunc("POST /panels/{id}/pointer", s.HandlePointer)
	mux.HandleFunc("POST /panels/{id}/click", s.HandleClick)
	mux.HandleFunc("GET /panels/{id}/tooltip", s.HandleTooltip)
	mux.HandleFunc("POST /panels/{id}/form", s.HandleForm)
	mux.HandleFunc("GET /panels/{id}/markers/{index}", s.HandleGetMarker)
	mux.HandleFunc("POST /panels/{id}/markers/{index}", s.HandleMarkerSubmit)
	mux.HandleFunc("GET /panels/{id}/chart", s.HandleChart)
	mux.HandleFunc("GET /panels/{id}/export.xlsx", s.HandleExport)
	mux.HandleFunc("POST /panels/{id}/snapshot", s.HandleSnapshot)

	// Stored snapshots
	mux.HandleFunc("GET /snapshots", s.HandleListSnapshots)
	mux.HandleFunc("GET /snapshots/{path...}", s.HandleSnapshotFile)

	// Annotations
	mux.HandleFunc("GET /annotations", s.HandleListAnnotations)
	mux.HandleFunc("POST /annotations", s.HandleCreateAnnotation)
	mux.HandleFunc("POST /annotations/commit", s.HandleCommitAnnotations)

	return mux
}

// Close releases every panel
func (s *Server) Close() error {
	if released := s.panels.releaseAll(); released > 0 {
		s.log.Info("Released panels", logger.Fields{"count": released})
	}
	return nil
}
