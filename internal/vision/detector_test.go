package vision

import (
	"math"
	"testing"
)

func TestBoxToCorners(t *testing.T) {
	// A 100x40 box centered at (320,240) in 640-input space, mapped back
	// to a 1280px-square frame (scale 2).
	x1, y1, x2, y2 := boxToCorners(320, 240, 100, 40, 2)

	if x1 != 540 || y1 != 440 || x2 != 740 || y2 != 520 {
		t.Errorf("got (%v,%v,%v,%v), want (540,440,740,520)", x1, y1, x2, y2)
	}
}

func TestBoxToCorners_IdentityScale(t *testing.T) {
	x1, y1, x2, y2 := boxToCorners(50, 60, 20, 10, 1)

	if x1 != 40 || y1 != 55 || x2 != 60 || y2 != 65 {
		t.Errorf("got (%v,%v,%v,%v), want (40,55,60,65)", x1, y1, x2, y2)
	}
}

func TestClampBox(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		want           [4]float64
	}{
		{"inside is untouched", 10, 20, 100, 200, [4]float64{10, 20, 100, 200}},
		{"negative corner", -15, -5, 50, 50, [4]float64{0, 0, 50, 50}},
		{"past the far edge", 600, 1000, 800, 1400, [4]float64{600, 1000, 720, 1280}},
		{"fully outside", -40, -40, -10, -10, [4]float64{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x1, y1, x2, y2 := clampBox(tt.x1, tt.y1, tt.x2, tt.y2, 720, 1280)
			got := [4]float64{x1, y1, x2, y2}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampBox_DegenerateAfterClamp(t *testing.T) {
	// A box entirely past the edge collapses to zero area; the detector
	// drops these.
	x1, y1, x2, y2 := clampBox(800, 100, 900, 150, 720, 1280)
	if x2-x1 != 0 {
		t.Errorf("width = %v, want 0", x2-x1)
	}
	if math.Abs(y2-y1-50) > 1e-9 {
		t.Errorf("height = %v, want 50", y2-y1)
	}
}
