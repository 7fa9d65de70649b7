package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/testutil"
	"github.com/fastball-data/pitch.report/internal/units"
)

// TestListAnalyses_Empty tests listing before anything has been analyzed
func TestListAnalyses_Empty(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	w := httptest.NewRecorder()

	server.listAnalyses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var records []*pitch.AnalysisRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if records == nil {
		t.Error("Expected non-nil records array")
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(records))
	}
}

// TestListAnalyses tests listing recent analyses newest first
func TestListAnalyses(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	insertTestAnalysis(t, server, "first.mp4", []float64{10, 11, 12}, 1.0)
	insertTestAnalysis(t, server, "second.mp4", []float64{12, 13, 14}, 1.0)
	insertTestAnalysis(t, server, "third.mp4", []float64{14, 15, 16}, 1.0)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	w := httptest.NewRecorder()

	server.listAnalyses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var records []*pitch.AnalysisRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Source != "third.mp4" || records[2].Source != "first.mp4" {
		t.Errorf("Expected newest-first order, got %q..%q", records[0].Source, records[2].Source)
	}
}

// TestListAnalyses_Limit tests the limit query parameter
func TestListAnalyses_Limit(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	insertTestAnalysis(t, server, "first.mp4", []float64{10, 11, 12}, 1.0)
	insertTestAnalysis(t, server, "second.mp4", []float64{12, 13, 14}, 1.0)
	insertTestAnalysis(t, server, "third.mp4", []float64{14, 15, 16}, 1.0)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses?limit=2", nil)
	w := httptest.NewRecorder()

	server.listAnalyses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var records []*pitch.AnalysisRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Source != "third.mp4" {
		t.Errorf("Expected newest record first, got %q", records[0].Source)
	}
}

// TestListAnalyses_InvalidLimit tests limit parameter validation
func TestListAnalyses_InvalidLimit(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	for _, limit := range []string{"abc", "0", "-3"} {
		t.Run(limit, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analyses?limit="+limit, nil)
			w := httptest.NewRecorder()

			server.listAnalyses(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

// TestListAnalyses_LimitCapped tests that oversized limits clamp instead of
// erroring
func TestListAnalyses_LimitCapped(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	insertTestAnalysis(t, server, "only.mp4", []float64{10, 11, 12}, 1.0)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses?limit=100000", nil)
	w := httptest.NewRecorder()

	server.listAnalyses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var records []*pitch.AnalysisRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

// TestListAnalyses_MethodNotAllowed tests that only GET is allowed
func TestListAnalyses_MethodNotAllowed(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", nil)
	w := httptest.NewRecorder()

	server.listAnalyses(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

// TestGetAnalysis tests fetching one record with its interval speeds
func TestGetAnalysis(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	inserted := insertTestAnalysis(t, server, "pitch.mp4", []float64{10, 11, 12}, 1.0)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/analyses/get?id=%d", inserted.ID), nil)
	w := httptest.NewRecorder()

	server.getAnalysis(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var rec pitch.AnalysisRecord
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if rec.UUID != inserted.UUID {
		t.Errorf("Expected UUID %q, got %q", inserted.UUID, rec.UUID)
	}
	if diff := cmp.Diff([]float64{10, 11, 12}, rec.IntervalSpeedsMPS); diff != "" {
		t.Errorf("Interval speeds mismatch (-want +got):\n%s", diff)
	}
}

// TestGetAnalysis_NotFound tests fetching a non-existent record
func TestGetAnalysis_NotFound(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/get?id=99999", nil)
	w := httptest.NewRecorder()

	server.getAnalysis(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// TestGetAnalysis_InvalidID tests id parameter validation
func TestGetAnalysis_InvalidID(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	tests := []struct {
		name  string
		query string
	}{
		{"missing id", ""},
		{"malformed id", "?id=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analyses/get"+tt.query, nil)
			w := httptest.NewRecorder()

			server.getAnalysis(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

// TestAnalysisChart tests the speed profile chart endpoint
func TestAnalysisChart(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	inserted := insertTestAnalysis(t, server, "pitch.mp4", []float64{10, 11, 12}, 2.0)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/analyses/chart?id=%d", inserted.ID), nil)
	w := httptest.NewRecorder()

	server.analysisChart(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Pitch Speed Profile") {
		t.Error("Expected chart title in body")
	}
	if !strings.Contains(body, "interval speed") || !strings.Contains(body, "reported speed") {
		t.Error("Expected both series in chart body")
	}
}

// TestAnalysisChart_Units tests the optional units query parameter
func TestAnalysisChart_Units(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	inserted := insertTestAnalysis(t, server, "pitch.mp4", []float64{10, 11, 12}, 2.0)

	req := testutil.NewTestRequest(http.MethodGet, fmt.Sprintf("/api/analyses/chart?id=%d&units=%s", inserted.ID, units.MPS))
	w := testutil.NewTestRecorder()

	server.analysisChart(w, req)

	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	if body := w.Body.String(); !strings.Contains(body, `"name":"mps"`) {
		t.Error("Expected the y axis to be labelled with the requested units")
	}
}

// TestAnalysisChart_InvalidUnits tests that unknown units are rejected
func TestAnalysisChart_InvalidUnits(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	inserted := insertTestAnalysis(t, server, "pitch.mp4", []float64{10, 11, 12}, 1.0)

	req := testutil.NewTestRequest(http.MethodGet, fmt.Sprintf("/api/analyses/chart?id=%d&units=furlongs", inserted.ID))
	w := testutil.NewTestRecorder()

	server.analysisChart(w, req)

	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
	if msg := jsonError(t, w); !strings.Contains(msg, units.GetValidUnitsString()) {
		t.Errorf("Expected the error to list valid units, got %q", msg)
	}
}

// TestAnalysisChart_NoSpeeds tests charting a record without interval speeds
func TestAnalysisChart_NoSpeeds(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())
	inserted := insertTestAnalysis(t, server, "failed.mp4", nil, 1.0)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/analyses/chart?id=%d", inserted.ID), nil)
	w := httptest.NewRecorder()

	server.analysisChart(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// TestAnalysisChart_NotFound tests charting a non-existent record
func TestAnalysisChart_NotFound(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/chart?id=99999", nil)
	w := httptest.NewRecorder()

	server.analysisChart(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// TestAnalysisChart_MethodNotAllowed tests that only GET is allowed
func TestAnalysisChart_MethodNotAllowed(t *testing.T) {
	server, _, _ := setupTestServer(t, pitch.NewLinearFlight())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses/chart?id=1", nil)
	w := httptest.NewRecorder()

	server.analysisChart(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

// insertTestAnalysis stores a minimal analysis directly, bypassing the
// pipeline. speedsMPS may be nil for a record with no usable flight.
func insertTestAnalysis(t *testing.T, server *Server, source string, speedsMPS []float64, slowmo float64) *pitch.AnalysisRecord {
	t.Helper()

	res := &pitch.Result{
		Success:           len(speedsMPS) > 0,
		Source:            source,
		FPS:               30,
		TotalFrames:       60,
		IntervalSpeedsMPS: speedsMPS,
	}
	if len(speedsMPS) > 0 {
		speed := 108.0
		res.SpeedKMH = &speed
		res.SlowmoFactor = &slowmo
	}

	rec := pitch.NewAnalysisRecord(res)
	if err := server.store.InsertAnalysis(rec); err != nil {
		t.Fatalf("Failed to insert test analysis: %v", err)
	}
	return rec
}
