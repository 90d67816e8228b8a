package math

import "testing"

func TestLerp(t *testing.T) {
	if got := Lerp(0, 10, 0.25); got != 2.5 {
		t.Fatalf("Lerp(0, 10, 0.25) = %v, want 2.5", got)
	}
	if got := Lerp(5, 5, 0.7); got != 5 {
		t.Fatalf("Lerp(5, 5, 0.7) = %v, want 5", got)
	}
}

func TestLerpDegreesShortestArc(t *testing.T) {
	tests := []struct {
		a, b, t, want float32
	}{
		{0, 90, 0.5, 45},
		{350, 10, 0.5, 360},
		{170, -170, 0.5, 180},
		{-170, 170, 0.5, -180},
		{10, 350, 0.5, 0},
		{0, 180, 1, 180},
	}
	for _, tc := range tests {
		got := LerpDegrees(tc.a, tc.b, tc.t)
		if Abs(NormalizeDegrees(got-tc.want)) > 1e-3 {
			t.Errorf("LerpDegrees(%v, %v, %v) = %v, want %v", tc.a, tc.b, tc.t, got, tc.want)
		}
	}
}

func TestLerpDegreesNeverTravelsLong(t *testing.T) {
	// Interpolating 179 -> -179 must pass through 180, not 0.
	got := LerpDegrees(179, -179, 0.5)
	if Abs(NormalizeDegrees(got-180)) > 1e-3 {
		t.Fatalf("LerpDegrees(179, -179, 0.5) = %v, want 180", got)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct{ in, want float32 }{
		{0, 0},
		{180, 180},
		{-180, 180},
		{360, 0},
		{540, 180},
		{-90, -90},
		{270, -90},
	}
	for _, tc := range tests {
		if got := NormalizeDegrees(tc.in); Abs(got-tc.want) > 1e-3 {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Fatalf("Clamp(5, 0, 1) = %v, want 1", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Fatalf("Clamp(-5, 0, 1) = %v, want 0", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Fatalf("Clamp(0.5, 0, 1) = %v, want 0.5", got)
	}
}
