package utils

import (
	"math"
	"testing"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	if d := Haversine(27.1751, 78.0421, 27.1751, 78.0421); d != 0 {
		t.Fatalf("expected 0 for identical coordinates, got %f", d)
	}
}

func TestHaversine_OneDegreeLatitudeAtEquator(t *testing.T) {
	d := Haversine(0, 0, 1, 0)
	if math.Abs(d-111.19) > 111.19*0.01 {
		t.Fatalf("expected ~111 km, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(28.6139, 77.2090, 27.1751, 78.0421)
	b := Haversine(27.1751, 78.0421, 28.6139, 77.2090)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("expected symmetric distances, got %f and %f", a, b)
	}
}

func TestValidCoordinate(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90.1, 0, false},
		{0, 181, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, c := range cases {
		if got := ValidCoordinate(c.lat, c.lon); got != c.want {
			t.Fatalf("ValidCoordinate(%v, %v) = %v, want %v", c.lat, c.lon, got, c.want)
		}
	}
}

func TestRoundFloat(t *testing.T) {
	if got := RoundFloat(1.23456, 2); got != 1.23 {
		t.Fatalf("expected 1.23, got %v", got)
	}
}
