package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fastball-data/pitch.report/internal/httputil"
	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/units"
)

const defaultListLimit = 20
const maxListLimit = 200

// listAnalyses returns recent analyses, newest first.
// Query params:
//   - limit (optional; default 20, capped at 200)
func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis store not configured")
		return
	}

	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}

	records, err := s.store.ListAnalyses(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list analyses: %v", err))
		return
	}

	httputil.WriteJSONOK(w, records)
}

// getAnalysis returns one stored analysis by row ID, interval speeds
// included.
func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis store not configured")
		return
	}

	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetAnalysis(id)
	if errors.Is(err, pitch.ErrAnalysisNotFound) {
		httputil.NotFound(w, fmt.Sprintf("analysis %d not found", id))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get analysis: %v", err))
		return
	}

	httputil.WriteJSONOK(w, rec)
}

// analysisChart renders a stored analysis's per-interval speeds as an HTML
// line chart, slow-motion corrected, with the reported speed as a flat
// reference series.
// Query params:
//   - id (required)
//   - units (optional; default kmph)
func (s *Server) analysisChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis store not configured")
		return
	}

	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	unit := units.KMPH
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'units' parameter (valid: %s)", units.GetValidUnitsString()))
			return
		}
		unit = u
	}

	rec, err := s.store.GetAnalysis(id)
	if errors.Is(err, pitch.ErrAnalysisNotFound) {
		httputil.NotFound(w, fmt.Sprintf("analysis %d not found", id))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get analysis: %v", err))
		return
	}
	if len(rec.IntervalSpeedsMPS) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no interval speeds recorded for analysis %d", id))
		return
	}

	slowmo := 1.0
	if rec.SlowmoFactor != nil {
		slowmo = *rec.SlowmoFactor
	}

	labels := make([]string, len(rec.IntervalSpeedsMPS))
	series := make([]opts.LineData, len(rec.IntervalSpeedsMPS))
	for i, sp := range rec.IntervalSpeedsMPS {
		labels[i] = strconv.Itoa(i + 1)
		series[i] = opts.LineData{Value: units.ConvertSpeed(sp*slowmo, unit)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pitch Speed Profile", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pitch Speed Profile", Subtitle: fmt.Sprintf("analysis=%d source=%s intervals=%d", rec.ID, rec.Source, len(series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "interval"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	line.SetXAxis(labels).
		AddSeries("interval speed", series, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	if rec.SpeedKMH != nil {
		reported := *rec.SpeedKMH
		switch unit {
		case units.MPH:
			reported *= units.MPHPerKMPH
		case units.MPS:
			reported /= units.KMPHPerMPS
		}
		ref := make([]opts.LineData, len(series))
		for i := range ref {
			ref[i] = opts.LineData{Value: reported}
		}
		line.AddSeries("reported speed", ref)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// analysisID parses the required id query parameter, writing the error
// response itself when the parameter is missing or malformed.
func analysisID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid 'id' parameter")
		return 0, false
	}
	return id, true
}
