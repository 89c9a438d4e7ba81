package repository

import (
	"math"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestCoordinatesOf(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon *float64
		wantNil  bool
	}{
		{"both set", ptr(52.48), ptr(-1.89), false},
		{"missing latitude", nil, ptr(-1.89), true},
		{"missing longitude", ptr(52.48), nil, true},
		{"out of range", ptr(120), ptr(0), true},
		{"nan", ptr(math.NaN()), ptr(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coordinatesOf(tt.lat, tt.lon)
			if (got == nil) != tt.wantNil {
				t.Fatalf("coordinatesOf() = %v, wantNil %v", got, tt.wantNil)
			}
			if got != nil && (got.Latitude != *tt.lat || got.Longitude != *tt.lon) {
				t.Errorf("coordinatesOf() = %+v", got)
			}
		})
	}
}
