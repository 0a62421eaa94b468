package colorspace

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func TestUV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		u, v    float64
	}{
		{"black", 0, 0, 0, 0.5, 0.5},
		{"white", 1, 1, 1, 0.5, 0.5},
		{"pure green", 0, 1, 0, 0.169, 0.081},
		{"pure red", 1, 0, 0, 0.331, 1.0},
		{"pure blue", 0, 0, 1, 1.0, 0.419},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := UV(tt.r, tt.g, tt.b)
			if math.Abs(u-tt.u) > tolerance || math.Abs(v-tt.v) > tolerance {
				t.Errorf("UV(%v, %v, %v) = (%v, %v), want (%v, %v)",
					tt.r, tt.g, tt.b, u, v, tt.u, tt.v)
			}
		})
	}
}

func TestUV_GraysHaveNoChroma(t *testing.T) {
	// The coefficient rows sum to zero, so every gray sits at the chroma
	// origin (0.5, 0.5). This is what makes keying decisions robust to a
	// shadowed backdrop: luma changes never move a color in the UV plane.
	for _, g := range []float64{0, 0.25, 0.5, 0.75, 1} {
		u, v := UV(g, g, g)
		if math.Abs(u-0.5) > tolerance || math.Abs(v-0.5) > tolerance {
			t.Errorf("UV(gray %v) = (%v, %v), want (0.5, 0.5)", g, u, v)
		}
	}

	// Scaling a color scales its chroma offset from the origin linearly.
	u1, v1 := UV(0, 1, 0)
	u2, v2 := UV(0, 0.5, 0)
	if math.Abs((u2-0.5)*2-(u1-0.5)) > tolerance || math.Abs((v2-0.5)*2-(v1-0.5)) > tolerance {
		t.Errorf("half-luma green offset (%v, %v) is not half of (%v, %v)",
			u2-0.5, v2-0.5, u1-0.5, v1-0.5)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(0.5, 0.5, 0.5, 0.5); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
	if d := Distance(0, 0, 3, 4); math.Abs(d-5) > tolerance {
		t.Errorf("Distance(0,0,3,4) = %v, want 5", d)
	}
	d1 := Distance(0.1, 0.2, 0.4, 0.6)
	d2 := Distance(0.4, 0.6, 0.1, 0.2)
	if d1 != d2 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestLuma(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    float64
	}{
		{"black", 0, 0, 0, 0},
		{"white", 1, 1, 1, 1},
		{"green dominates", 0, 1, 0, 0.7152},
		{"red", 1, 0, 0, 0.2126},
		{"blue", 0, 0, 1, 0.0722},
		{"overflow clamps", 2, 2, 2, 1},
		{"underflow clamps", -1, -1, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Luma(tt.r, tt.g, tt.b); math.Abs(got-tt.want) > tolerance {
				t.Errorf("Luma(%v, %v, %v) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestSaturation(t *testing.T) {
	if s := Saturation(0.3, 0.3, 0.3); s != 0 {
		t.Errorf("gray saturation = %v, want 0", s)
	}
	if s := Saturation(0, 1, 0); s != 1 {
		t.Errorf("pure green saturation = %v, want 1", s)
	}
	if s := Saturation(0.2, 0.8, 0.5); math.Abs(s-0.6) > tolerance {
		t.Errorf("Saturation(0.2, 0.8, 0.5) = %v, want 0.6", s)
	}
}
