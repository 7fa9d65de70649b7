package pitch

// Detector class indices, as reported by the COCO-trained model the pipeline
// was tuned against. The ball filter includes the adjacent index the model
// drifts into for small fast objects.
const (
	ClassSportsBall = 32
	ClassMitt       = 36
	ClassBallAlt    = 37
)

// BallClassIDs is the class filter for ball detection requests.
var BallClassIDs = []int{ClassSportsBall, ClassBallAlt}

// MittClassIDs is the class filter for calibration detection requests.
var MittClassIDs = []int{ClassMitt}

// Fixed pipeline thresholds. These encode physical assumptions (mitt
// geometry, camera framing) rather than tunables.
const (
	// MittMinHeightPx is the smallest box height accepted as a mitt candidate
	MittMinHeightPx = 50.0
	// MittMaxFrameFraction rejects mitt candidates taller than this fraction of the frame
	MittMaxFrameFraction = 0.5
	// MittMinAspectRatio requires height > ratio × width (mitts read taller than wide)
	MittMinAspectRatio = 0.7
	// MittMinSizeRatio / MittMaxSizeRatio bound height/frame_height (exclusive)
	MittMinSizeRatio = 0.05
	MittMaxSizeRatio = 0.3
	// MittMinSamples is the number of accepted candidates required for mitt calibration
	MittMinSamples = 4
	// ScaleFloorMPerPx / ScaleCeilMPerPx bound a sane calibration result (exclusive)
	ScaleFloorMPerPx = 0.001
	ScaleCeilMPerPx  = 0.1
	// PortraitFieldWidthM is the assumed field-of-view width for portrait clips
	PortraitFieldWidthM = 11.0
	PortraitCoverage    = 1.0
	// LandscapeFieldWidthM is the assumed field-of-view width for landscape clips
	LandscapeFieldWidthM = 18.0
	LandscapeCoverage    = 0.7
	// SlowmoMaxFPS and SlowmoMinDurationSec gate slow-motion detection
	SlowmoMaxFPS         = 60.0
	SlowmoMinDurationSec = 2.0
	// FallbackFPS substitutes for containers that report a non-positive frame rate
	FallbackFPS = 30.0
)

// Default values for the tunable subset. config.TuningConfig can override
// these per deployment without touching algorithm code.
const (
	DefaultAssociationGatePx     = 150.0
	DefaultMinTrackPositions     = 5
	DefaultMaxTrackPositions     = 150
	DefaultMinDisplacementPx     = 10.0
	DefaultMittHeightMeters      = 0.32
	DefaultCalibrationScanFrames = 60
	DefaultMittMinConfidence     = 0.2
	DefaultBallMinConfidence     = 0.01
	DefaultBallMinSizePx         = 5.0
	DefaultBallMaxSizePx         = 200.0
	DefaultSpeedKeepFraction     = 0.75
	DefaultAssumedFlightSeconds  = 0.5
	DefaultPlausibleMinKMH       = 10.0
	DefaultPlausibleMaxKMH       = 200.0
)

// AnalyzerConfig holds the tunable parameters of the analysis pipeline.
type AnalyzerConfig struct {
	AssociationGatePx     float64 // Maximum centroid distance for detection-to-track association (pixels)
	MinTrackPositions     int     // Minimum positions for a track to be a flight candidate
	MaxTrackPositions     int     // Maximum positions before a track reads as a re-detected static object
	MinDisplacementPx     float64 // Minimum first-to-last displacement for a flight candidate (pixels)
	MittHeightMeters      float64 // Real-world catcher's mitt height used for scale calibration
	CalibrationScanFrames int     // Reversed-order frame prefix scanned for the mitt
	MittMinConfidence     float64 // Detector confidence floor for mitt requests
	BallMinConfidence     float64 // Detector confidence floor for ball requests
	BallMinSizePx         float64 // Ball box side-length band, exclusive bounds (pixels)
	BallMaxSizePx         float64
	SpeedKeepFraction     float64 // Fraction of fastest intervals retained by outlier suppression
	AssumedFlightSeconds  float64 // Assumed true pitch flight time for slow-motion estimation
	PlausibleMinKMH       float64 // Reported speeds outside this band get a warning
	PlausibleMaxKMH       float64
}

// DefaultAnalyzerConfig returns the configuration the pipeline was tuned with.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		AssociationGatePx:     DefaultAssociationGatePx,
		MinTrackPositions:     DefaultMinTrackPositions,
		MaxTrackPositions:     DefaultMaxTrackPositions,
		MinDisplacementPx:     DefaultMinDisplacementPx,
		MittHeightMeters:      DefaultMittHeightMeters,
		CalibrationScanFrames: DefaultCalibrationScanFrames,
		MittMinConfidence:     DefaultMittMinConfidence,
		BallMinConfidence:     DefaultBallMinConfidence,
		BallMinSizePx:         DefaultBallMinSizePx,
		BallMaxSizePx:         DefaultBallMaxSizePx,
		SpeedKeepFraction:     DefaultSpeedKeepFraction,
		AssumedFlightSeconds:  DefaultAssumedFlightSeconds,
		PlausibleMinKMH:       DefaultPlausibleMinKMH,
		PlausibleMaxKMH:       DefaultPlausibleMaxKMH,
	}
}
