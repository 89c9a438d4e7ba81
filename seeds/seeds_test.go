package seeds

import (
	"testing"

	"github.com/actuallystonmai/venue-recommender/internal/geo"
)

func TestVenuesDeterministic(t *testing.T) {
	a, b := Venues(42), Venues(42)
	if len(a) != len(venueSeeds) {
		t.Fatalf("got %d venues, want %d", len(a), len(venueSeeds))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].IsOpen != b[i].IsOpen {
			t.Fatalf("venue %d differs between runs", i)
		}
		if (a[i].Coordinates == nil) != (b[i].Coordinates == nil) {
			t.Fatalf("venue %d coordinates differ between runs", i)
		}
		if a[i].Coordinates != nil && *a[i].Coordinates != *b[i].Coordinates {
			t.Fatalf("venue %d coordinates differ between runs", i)
		}
	}
}

func TestVenuesLandInTheirRegion(t *testing.T) {
	venues := Venues(42)
	for i, seed := range venueSeeds {
		v := venues[i]
		switch seed.region {
		case "-":
			if v.Coordinates != nil {
				t.Errorf("%s should have no coordinates", v.Name)
			}
		case "":
			if !v.HasLocation() {
				t.Errorf("%s should have coordinates", v.Name)
			}
		default:
			if got := geo.ResolveRegion(*v.Coordinates); got != seed.region {
				t.Errorf("%s resolved to %q, want %q", v.Name, got, seed.region)
			}
		}
	}
}
