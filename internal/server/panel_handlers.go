package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"trendgraph/internal/charts"
	"trendgraph/internal/export"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/reports"
)

// panelRequest creates or replaces a panel. Datasets may be given inline or
// fetched from a trends URL.
type panelRequest struct {
	charts.Props
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Source string `json:"source,omitempty"`
}

// panelResponse is returned by the panel endpoints
type panelResponse struct {
	ID    string       `json:"id"`
	State charts.State `json:"state"`
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pointerRequest struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
}

type formRequest struct {
	Action string `json:"action"`
	Text   string `json:"text"`
}

type markerRequest struct {
	Text string `json:"text"`
}

type snapshotRequest struct {
	Title string `json:"title"`
}

// withPanel looks up the panel named in the path and runs fn under its lock
func (s *Server) withPanel(w http.ResponseWriter, r *http.Request, fn func(e *panelEntry)) {
	e, ok := s.panels.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", ErrUnknownPanel, r.PathValue("id")))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

func (s *Server) writePanel(w http.ResponseWriter, status int, e *panelEntry) {
	writeJSON(w, status, panelResponse{ID: e.id, State: e.panel.State()})
}

// resolveProps applies the default theme and fills the request's datasets from
// its source URL when none were sent
func (s *Server) resolveProps(r *http.Request, req *panelRequest) error {
	if req.Color == "" {
		req.Color = s.Config.DefaultTheme
	}
	if len(req.Datasets) > 0 || req.Source == "" {
		return nil
	}
	series, err := s.Fetcher.FetchSeries(r.Context(), req.Source)
	if err != nil {
		return err
	}
	req.Datasets = series
	return nil
}

// HandleCreatePanel builds a panel from props
func (s *Server) HandleCreatePanel(w http.ResponseWriter, r *http.Request) {
	var req panelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.resolveProps(r, &req); err != nil {
		s.log.Error("Failed to fetch panel series", err, logger.Fields{"source": req.Source})
		writeError(w, http.StatusBadGateway, err)
		return
	}

	canvas := charts.Canvas{Width: s.Config.ChartWidth, Height: s.Config.ChartHeight}
	if req.Width > 0 && req.Height > 0 {
		canvas = charts.Canvas{Width: req.Width, Height: req.Height}
	}
	panel := charts.NewPanel(s.Engine, charts.RegistryProvider(s.Registry), s.Viewer,
		charts.WithPalette(s.Palettes),
		charts.WithDispatch(s.dispatch),
		charts.WithCanvas(canvas),
	)

	e := newPanelEntry(panel)
	req.OnPointClick = e.recordClick
	if err := panel.SetProps(r.Context(), req.Props); err != nil {
		panel.Release()
		s.log.Error("Failed to build panel", err)
		writeError(w, statusFor(err), err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s.panels.add(e)
	s.log.Info("Panel created", logger.Fields{"id": e.id, "type": string(req.ChartType), "datasets": len(req.Datasets)})
	s.writePanel(w, http.StatusCreated, e)
}

// HandleGetPanel returns the panel state
func (s *Server) HandleGetPanel(w http.ResponseWriter, r *http.Request) {
	s.withPanel(w, r, func(e *panelEntry) {
		s.writePanel(w, http.StatusOK, e)
	})
}

// HandleUpdatePanel replaces the panel props
func (s *Server) HandleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	var req panelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.resolveProps(r, &req); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		req.OnPointClick = e.recordClick
		if err := e.panel.SetProps(r.Context(), req.Props); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if req.Width > 0 && req.Height > 0 {
			e.panel.Resize(req.Width, req.Height)
		}
		s.writePanel(w, http.StatusOK, e)
	})
}

// HandleDeletePanel releases the panel
func (s *Server) HandleDeletePanel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.panels.remove(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", ErrUnknownPanel, id))
		return
	}
	s.log.Info("Panel released", logger.Fields{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

// HandleResize changes the canvas size
func (s *Server) HandleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("size must be positive, got %dx%d", req.Width, req.Height))
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		e.panel.Resize(req.Width, req.Height)
		s.writePanel(w, http.StatusOK, e)
	})
}

// HandlePointer feeds pointer enter, move and leave events
func (s *Server) HandlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		switch req.Action {
		case "enter":
			e.panel.PointerEnter()
		case "move":
			e.panel.PointerMove(req.X)
		case "leave":
			e.panel.PointerLeave()
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown pointer action %q", req.Action))
			return
		}
		s.writePanel(w, http.StatusOK, e)
	})
}

// HandleClick resolves a click on a rendered point
func (s *Server) HandleClick(w http.ResponseWriter, r *http.Request) {
	var ref models.PointRef
	if err := decodeJSON(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		click, err := e.panel.Click(ref)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, click)
	})
}

// HandleTooltip returns the tooltip line of one point
func (s *Server) HandleTooltip(w http.ResponseWriter, r *http.Request) {
	dataset, err := intParam(r, "dataset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	index, err := intParam(r, "index", -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		label, ok := e.panel.Tooltip(models.PointRef{DatasetIndex: dataset, Index: index})
		writeJSON(w, http.StatusOK, map[string]interface{}{"label": label, "visible": ok})
	})
}

// HandleForm drives the add-annotation form
func (s *Server) HandleForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		var err error
		switch req.Action {
		case "open":
			err = e.panel.OpenForm()
		case "draft":
			err = e.panel.SetDraft(req.Text)
		case "cancel":
			e.panel.Cancel()
		case "submit":
			if req.Text != "" {
				err = e.panel.SetDraft(req.Text)
			}
			if err == nil {
				err = e.panel.Submit(r.Context())
			}
		default:
			err = fmt.Errorf("unknown form action %q", req.Action)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		s.writePanel(w, http.StatusOK, e)
	})
}

func markerIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid marker index %q", raw)
	}
	return index, nil
}

// HandleGetMarker returns the marker panel at a label index
func (s *Server) HandleGetMarker(w http.ResponseWriter, r *http.Request) {
	index, err := markerIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		overlay := e.panel.Overlay()
		if overlay == nil {
			writeError(w, http.StatusConflict, charts.ErrNoInstance)
			return
		}
		mp, err := overlay.Panel(index)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, mp)
	})
}

// HandleMarkerSubmit appends an annotation from a marker panel
func (s *Server) HandleMarkerSubmit(w http.ResponseWriter, r *http.Request) {
	index, err := markerIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req markerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		overlay := e.panel.Overlay()
		if overlay == nil {
			writeError(w, http.StatusConflict, charts.ErrNoInstance)
			return
		}
		if err := overlay.SetDraft(index, req.Text); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if err := overlay.Submit(r.Context(), index); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		mp, err := overlay.Panel(index)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusAccepted, mp)
	})
}

// HandleChart renders the chart with its markers
func (s *Server) HandleChart(w http.ResponseWriter, r *http.Request) {
	s.withPanel(w, r, func(e *panelEntry) {
		var buf bytes.Buffer
		if err := e.panel.Render(&buf); err != nil {
			s.log.Error("Failed to render chart", err, logger.Fields{"id": e.id})
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", e.panel.ContentType())
		w.Write(buf.Bytes())
	})
}

// HandleExport streams the panel series as a workbook
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	s.withPanel(w, r, func(e *panelEntry) {
		props := e.panel.Props()
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, reports.ExportLabels(props), props.Datasets); err != nil {
			s.log.Error("Failed to export panel", err, logger.Fields{"id": e.id})
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="panel-%s.xlsx"`, e.id))
		w.Write(buf.Bytes())
	})
}

// HandleSnapshot stores the rendered chart, its export and its state
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errSnapshotsDisabled)
		return
	}
	var req snapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.withPanel(w, r, func(e *panelEntry) {
		result, err := s.Snapshots.Create(r.Context(), e.panel, req.Title)
		if err != nil {
			s.log.Error("Snapshot failed", err, logger.Fields{"id": e.id})
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})
}
