package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/persist"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/viz"
)

type chartInfo struct {
	Index int    `json:"index"`
	F     string `json:"f"`
	Title string `json:"title"`
	Study bool   `json:"study"`
}

// handleCharts lists the chart catalog.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	out := make([]chartInfo, 0, len(s.factories))
	for i, f := range s.factories {
		if f == nil {
			continue
		}
		out = append(out, chartInfo{Index: i, F: f.Kind().String(), Title: f.Title(), Study: f.Study()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSimulations lists stored simulations, newest first.
func (s *Server) handleSimulations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sims, err := s.repo.ListSimulations(ctx, parseIntParam(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sims)
}

type simulationDetail struct {
	ID     string             `json:"id"`
	Config simulation.Config  `json:"config"`
	Agents []simulation.Agent `json:"agents"`
	Logs   map[string]int     `json:"logs"`
}

// handleSimulationDetail returns a simulation's config, agents and the row
// count of each log.
func (s *Server) handleSimulationDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sim, err := s.repo.LoadSimulation(ctx, r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	logs := make(map[string]int, len(sim.Logs))
	for name, l := range sim.Logs {
		logs[name] = l.Data().Len()
	}
	writeJSON(w, http.StatusOK, simulationDetail{ID: sim.ID, Config: sim.Config, Agents: sim.Agents, Logs: logs})
}

// renderRequest selects a chart, either by catalog index or inline, and
// the stored simulations to load into it.
type renderRequest struct {
	Chart       *int                 `json:"chart,omitempty"`
	Spec        map[string]any       `json:"spec,omitempty"`
	Simulations []string             `json:"simulations"`
	To          string               `json:"to,omitempty"`
	Title       *viz.TitleAdjustment `json:"title,omitempty"`
	Interactive bool                 `json:"interactive,omitempty"`
	Axis        *layout.Axis         `json:"axis,omitempty"`
}

type renderedJSON struct {
	ID       string             `json:"id"`
	Target   string             `json:"target,omitempty"`
	Degraded []string           `json:"degraded,omitempty"`
	Figure   *viz.Visualization `json:"figure"`
}

// handleRender builds visualizations from stored simulations, pushes them
// to their display target and records them.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if len(req.Simulations) == 0 {
		writeError(w, http.StatusBadRequest, "no simulations given")
		return
	}

	f, err := s.factory(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sims := make([]*simulation.Simulation, 0, len(req.Simulations))
	for _, id := range req.Simulations {
		sim, err := s.repo.LoadSimulation(ctx, id)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		sims = append(sims, sim)
	}

	opts := viz.LoadOptions{To: req.To, Title: req.Title, IsInteractive: req.Interactive, Axis: req.Axis}
	if f.Study() || len(sims) > 1 {
		opts.Sims = sims
	} else {
		opts.Sim = sims[0]
	}
	vs, err := f.Load(opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	out := make([]renderedJSON, 0, len(vs))
	for _, v := range vs {
		s.record(ctx, v)
		rj := renderedJSON{ID: v.ID, Target: v.Target, Figure: v}
		for _, d := range v.Degraded {
			rj.Degraded = append(rj.Degraded, d.Error())
		}
		out = append(out, rj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) factory(req renderRequest) (*viz.Factory, error) {
	switch {
	case req.Spec != nil:
		var opts []viz.Option
		if s.hub != nil {
			opts = append(opts, viz.WithRenderer(s.hub))
		}
		return viz.NewFactory(req.Spec, s.env, opts...)
	case req.Chart != nil:
		i := *req.Chart
		if i < 0 || i >= len(s.factories) || s.factories[i] == nil {
			return nil, fmt.Errorf("chart not found: %d", i)
		}
		return s.factories[i], nil
	}
	return nil, errors.New("request names neither chart nor spec")
}

func (s *Server) record(ctx context.Context, v *viz.Visualization) {
	rec, err := Record(v)
	if err != nil {
		s.log.Error("encode visualization", "id", v.ID, "err", err)
		return
	}
	if s.records != nil {
		select {
		case s.records <- rec:
		default:
			s.log.Warn("visualization record queue full, dropping", "id", v.ID)
		}
		return
	}
	if err := s.repo.SaveVisualization(ctx, rec); err != nil {
		s.log.Error("save visualization", "id", v.ID, "err", err)
	}
}

// Record converts v to its stored form.
func Record(v *viz.Visualization) (persist.VisualizationRecord, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return persist.VisualizationRecord{}, err
	}
	return persist.VisualizationRecord{
		ID:        v.ID,
		Kind:      v.Kind.String(),
		Title:     v.Layout.TitleText(),
		Target:    v.Target,
		Degraded:  len(v.Degraded),
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}

// handleVisualizations lists recorded visualizations.
func (s *Server) handleVisualizations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	recs, err := s.repo.ListVisualizations(ctx, persist.VisualizationFilter{
		Target: q.Get("target"),
		Kind:   q.Get("kind"),
		Limit:  parseIntParam(r, "limit", 100),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []persist.VisualizationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleVisualization returns one recorded figure as {data, layout, config}.
func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := s.repo.GetVisualization(ctx, r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Payload)
}

type statsResponse struct {
	Uptime         string           `json:"uptime"`
	Clients        int              `json:"clients"`
	Targets        []string         `json:"targets"`
	Charts         int              `json:"charts"`
	Simulations    int64            `json:"simulations"`
	Visualizations int64            `json:"visualizations"`
	ByKind         map[string]int64 `json:"byKind"`
}

// handleStats returns runtime and aggregate statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := s.repo.Stats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := statsResponse{
		Uptime:         time.Since(s.startAt).Truncate(time.Second).String(),
		Targets:        []string{},
		Simulations:    st.Simulations,
		Visualizations: st.Visualizations,
		ByKind:         st.ByKind,
	}
	for _, f := range s.factories {
		if f != nil {
			resp.Charts++
		}
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
		resp.Targets = s.hub.Targets()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, persist.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
