package pitch

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/fastball-data/pitch.report/internal/timeutil"
	"github.com/fastball-data/pitch.report/internal/units"
)

// ErrAnalysisNotFound is returned when no analysis row matches the lookup.
var ErrAnalysisNotFound = errors.New("analysis not found")

// AnalysisRecord is one persisted analysis in the analyses table.
type AnalysisRecord struct {
	ID                 int64     `json:"id"`
	UUID               string    `json:"uuid"`
	Source             string    `json:"source,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	Success            bool      `json:"success"`
	SpeedKMH           *float64  `json:"speed_kmh,omitempty"`
	SpeedMPH           *float64  `json:"speed_mph,omitempty"`
	DetectedFrames     int       `json:"detected_frames"`
	DetectionCount     int       `json:"detection_count"`
	MaxTrackLength     int       `json:"max_track_length"`
	FPS                float64   `json:"fps"`
	TotalFrames        int       `json:"total_frames"`
	TrackingDurationMS *float64  `json:"tracking_duration_ms,omitempty"`
	MittDetected       bool      `json:"mitt_detected"`
	CalibrationMethod  string    `json:"calibration_method,omitempty"`
	ScaleFactor        *float64  `json:"scale_factor,omitempty"`
	SlowmoFactor       *float64  `json:"slowmo_factor,omitempty"`
	Warning            string    `json:"warning,omitempty"`
	Message            string    `json:"message,omitempty"`
	ElapsedMS          int64     `json:"elapsed_ms"`
	IntervalSpeedsMPS  []float64 `json:"interval_speeds_mps,omitempty"`
	SpeedP50KMH        *float64  `json:"speed_p50_kmh,omitempty"`
	SpeedP85KMH        *float64  `json:"speed_p85_kmh,omitempty"`
	SpeedP95KMH        *float64  `json:"speed_p95_kmh,omitempty"`
}

// NewAnalysisRecord builds a record from a result, assigning a fresh UUID
// and computing summary percentiles over the corrected interval speeds.
// CreatedAt is stamped by the store at insert time.
func NewAnalysisRecord(res *Result) *AnalysisRecord {
	rec := &AnalysisRecord{
		UUID:               uuid.NewString(),
		Source:             res.Source,
		Success:            res.Success,
		SpeedKMH:           res.SpeedKMH,
		SpeedMPH:           res.SpeedMPH,
		DetectedFrames:     res.DetectedFrames,
		DetectionCount:     res.DetectionCount,
		MaxTrackLength:     res.MaxTrackLength,
		FPS:                res.FPS,
		TotalFrames:        res.TotalFrames,
		TrackingDurationMS: res.TrackingDurationMS,
		MittDetected:       res.MittDetected,
		CalibrationMethod:  res.CalibrationMethod,
		ScaleFactor:        res.ScaleFactor,
		SlowmoFactor:       res.SlowmoFactor,
		Warning:            res.Warning,
		Message:            res.Message,
		ElapsedMS:          res.ElapsedMS,
		IntervalSpeedsMPS:  res.IntervalSpeedsMPS,
	}
	slowmo := 1.0
	if res.SlowmoFactor != nil {
		slowmo = *res.SlowmoFactor
	}
	if p50, p85, p95, ok := speedPercentilesKMH(res.IntervalSpeedsMPS, slowmo); ok {
		rec.SpeedP50KMH = ptrFloat(round1(p50))
		rec.SpeedP85KMH = ptrFloat(round1(p85))
		rec.SpeedP95KMH = ptrFloat(round1(p95))
	}
	return rec
}

// speedPercentilesKMH computes p50/p85/p95 over the slow-motion-corrected
// interval speeds, in km/h.
func speedPercentilesKMH(speedsMPS []float64, slowmo float64) (p50, p85, p95 float64, ok bool) {
	if len(speedsMPS) == 0 {
		return 0, 0, 0, false
	}
	corrected := make([]float64, len(speedsMPS))
	for i, s := range speedsMPS {
		corrected[i] = units.ConvertSpeed(s*slowmo, units.KMPH)
	}
	sort.Float64s(corrected)
	p50 = stat.Quantile(0.50, stat.Empirical, corrected, nil)
	p85 = stat.Quantile(0.85, stat.Empirical, corrected, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, corrected, nil)
	return p50, p85, p95, true
}

// AnalysisStore handles database operations for the analyses table.
type AnalysisStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewAnalysisStore creates a new AnalysisStore. clock may be nil for the
// real clock.
func NewAnalysisStore(db *sql.DB, clock timeutil.Clock) *AnalysisStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &AnalysisStore{db: db, clock: clock}
}

const analysisColumns = `
	id, analysis_uuid, source_name, created_at, success,
	speed_kmh, speed_mph, detected_frames, detection_count, max_track_length,
	fps, total_frames, tracking_duration_ms, mitt_detected, calibration_method,
	scale_factor, slowmo_factor, warning, message, elapsed_ms,
	interval_speeds, speed_p50_kmh, speed_p85_kmh, speed_p95_kmh`

// InsertAnalysis inserts a new analysis record, stamping CreatedAt and
// filling in the generated row ID.
func (s *AnalysisStore) InsertAnalysis(rec *AnalysisRecord) error {
	rec.CreatedAt = s.clock.Now().UTC()

	speedsJSON, err := json.Marshal(rec.IntervalSpeedsMPS)
	if err != nil {
		return fmt.Errorf("failed to marshal interval speeds: %w", err)
	}
	if rec.IntervalSpeedsMPS == nil {
		speedsJSON = []byte("[]")
	}

	query := `
		INSERT INTO analyses (
			analysis_uuid, source_name, created_at, success,
			speed_kmh, speed_mph, detected_frames, detection_count, max_track_length,
			fps, total_frames, tracking_duration_ms, mitt_detected, calibration_method,
			scale_factor, slowmo_factor, warning, message, elapsed_ms,
			interval_speeds, speed_p50_kmh, speed_p85_kmh, speed_p95_kmh
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		rec.UUID, rec.Source, rec.CreatedAt.Format(time.RFC3339Nano), rec.Success,
		rec.SpeedKMH, rec.SpeedMPH, rec.DetectedFrames, rec.DetectionCount, rec.MaxTrackLength,
		rec.FPS, rec.TotalFrames, rec.TrackingDurationMS, rec.MittDetected, rec.CalibrationMethod,
		rec.ScaleFactor, rec.SlowmoFactor, rec.Warning, rec.Message, rec.ElapsedMS,
		string(speedsJSON), rec.SpeedP50KMH, rec.SpeedP85KMH, rec.SpeedP95KMH,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rec.ID = id
	}

	return nil
}

// GetAnalysis retrieves one analysis by row ID.
func (s *AnalysisStore) GetAnalysis(id int64) (*AnalysisRecord, error) {
	row := s.db.QueryRow(`SELECT`+analysisColumns+` FROM analyses WHERE id = ?`, id)
	rec, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %d: %w", id, ErrAnalysisNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %d: %w", id, err)
	}
	return rec, nil
}

// ListAnalyses retrieves the most recent analyses, newest first.
func (s *AnalysisStore) ListAnalyses(limit int) ([]*AnalysisRecord, error) {
	query := `SELECT` + analysisColumns + ` FROM analyses ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := []*AnalysisRecord{}
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*AnalysisRecord, error) {
	rec := &AnalysisRecord{}
	var (
		createdAt  string
		speedsJSON sql.NullString
		speedKMH   sql.NullFloat64
		speedMPH   sql.NullFloat64
		trackingMS sql.NullFloat64
		scale      sql.NullFloat64
		slowmo     sql.NullFloat64
		warning    sql.NullString
		message    sql.NullString
		calMethod  sql.NullString
		source     sql.NullString
		p50        sql.NullFloat64
		p85        sql.NullFloat64
		p95        sql.NullFloat64
	)

	err := row.Scan(
		&rec.ID, &rec.UUID, &source, &createdAt, &rec.Success,
		&speedKMH, &speedMPH, &rec.DetectedFrames, &rec.DetectionCount, &rec.MaxTrackLength,
		&rec.FPS, &rec.TotalFrames, &trackingMS, &rec.MittDetected, &calMethod,
		&scale, &slowmo, &warning, &message, &rec.ElapsedMS,
		&speedsJSON, &p50, &p85, &p95,
	)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	rec.Source = source.String
	rec.CalibrationMethod = calMethod.String
	rec.Warning = warning.String
	rec.Message = message.String
	rec.SpeedKMH = nullableFloat(speedKMH)
	rec.SpeedMPH = nullableFloat(speedMPH)
	rec.TrackingDurationMS = nullableFloat(trackingMS)
	rec.ScaleFactor = nullableFloat(scale)
	rec.SlowmoFactor = nullableFloat(slowmo)
	rec.SpeedP50KMH = nullableFloat(p50)
	rec.SpeedP85KMH = nullableFloat(p85)
	rec.SpeedP95KMH = nullableFloat(p95)
	if speedsJSON.Valid && speedsJSON.String != "" {
		if err := json.Unmarshal([]byte(speedsJSON.String), &rec.IntervalSpeedsMPS); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interval speeds: %w", err)
		}
	}

	return rec, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
