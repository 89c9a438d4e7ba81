package ranking

import (
	"math"
	"testing"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/profile"
)

var userLocation = domain.Coordinates{Latitude: 52.4862, Longitude: -1.8904}

// north returns a point km kilometres due north of the user.
func north(km float64) *domain.Coordinates {
	return &domain.Coordinates{
		Latitude:  userLocation.Latitude + km/111.195,
		Longitude: userLocation.Longitude,
	}
}

func constScorer(v float64) Scorer {
	return ScorerFunc(func(domain.Candidate) float64 { return v })
}

func TestRankEndToEndScenario(t *testing.T) {
	p := domain.NewTasteProfile()
	p.Cuisines = []string{"Thai"}
	p.PricePreference = domain.PriceMid
	store := profile.NewStore(p, nil)

	a := domain.Candidate{ID: "A", Cuisine: "Thai", PriceLevel: "££", Coordinates: north(0.3)}
	b := domain.Candidate{ID: "B", Cuisine: "Italian", PriceLevel: "££", Coordinates: north(0.1)}

	got := Rank(Input{
		Candidates: []domain.Candidate{b, a},
		From:       userLocation,
		Scorer:     store,
		Options:    DefaultOptions(),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Candidate.ID != "A" {
		t.Errorf("expected A first, got %s", got[0].Candidate.ID)
	}
	if got[0].TasteScore < 75 {
		t.Errorf("A taste = %f, want >= 75", got[0].TasteScore)
	}
	if got[1].TasteScore != 65 {
		t.Errorf("B taste = %f, want 65", got[1].TasteScore)
	}
	if math.Abs(got[0].DistanceKm-0.3) > 0.01 {
		t.Errorf("A distance = %f, want ~0.3", got[0].DistanceKm)
	}
	if got[0].CombinedScore <= got[1].CombinedScore {
		t.Errorf("combined scores not ordered: %f <= %f", got[0].CombinedScore, got[1].CombinedScore)
	}
}

func TestRankCombinedFormula(t *testing.T) {
	c := domain.Candidate{ID: "x", Coordinates: north(2.5)}
	got := Rank(Input{
		Candidates: []domain.Candidate{c},
		From:       userLocation,
		Scorer:     constScorer(80),
		Options:    DefaultOptions(),
	})

	want := 0.7*80 + 0.3*100*(1-2.5/10)
	if len(got) != 1 || math.Abs(got[0].CombinedScore-want) > 0.05 {
		t.Errorf("combined = %+v, want ~%f", got, want)
	}
}

func TestRankMonotonicProximity(t *testing.T) {
	var candidates []domain.Candidate
	for _, km := range []float64{5, 0.2, 9.5, 1, 3} {
		candidates = append(candidates, domain.Candidate{ID: "c", Coordinates: north(km)})
	}

	for _, opts := range []Options{
		DefaultOptions(),
		{TasteWeight: 1, DistanceWeight: 0, MaxDistanceKm: 10},
	} {
		got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(60), Options: opts})
		for i := 1; i < len(got); i++ {
			if got[i-1].DistanceKm > got[i].DistanceKm {
				t.Errorf("closer candidate ranked below farther one: %f before %f", got[i-1].DistanceKm, got[i].DistanceKm)
			}
		}
	}
}

func TestRankScoreBounds(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "1", Coordinates: north(0)},
		{ID: "2", Coordinates: north(9.99)},
		{ID: "3", Coordinates: north(4)},
	}
	scorers := []Scorer{constScorer(-50), constScorer(0), constScorer(100), constScorer(500), constScorer(math.NaN())}
	optionSets := []Options{
		DefaultOptions(),
		{TasteWeight: 2, DistanceWeight: 2, MaxDistanceKm: 10},
		{TasteWeight: -1, DistanceWeight: math.NaN(), MaxDistanceKm: -4},
	}

	for _, s := range scorers {
		for _, o := range optionSets {
			for _, r := range Rank(Input{Candidates: candidates, From: userLocation, Scorer: s, Options: o}) {
				if math.IsNaN(r.CombinedScore) || r.CombinedScore < 0 || r.CombinedScore > 100 {
					t.Errorf("combined out of bounds: %f", r.CombinedScore)
				}
				if math.IsNaN(r.TasteScore) || r.TasteScore < 0 || r.TasteScore > 100 {
					t.Errorf("taste out of bounds: %f", r.TasteScore)
				}
				if r.DistanceKm < 0 {
					t.Errorf("negative distance: %f", r.DistanceKm)
				}
			}
		}
	}
}

func TestRankDropsMissingAndFarCandidates(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "no-coords"},
		{ID: "bad-coords", Coordinates: &domain.Coordinates{Latitude: math.NaN(), Longitude: 1}},
		{ID: "far", Coordinates: north(25)},
		{ID: "near", Coordinates: north(1)},
	}

	got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(50), Options: DefaultOptions()})
	if len(got) != 1 || got[0].Candidate.ID != "near" {
		t.Errorf("expected only the near candidate, got %+v", got)
	}
}

func TestRankTieBreak(t *testing.T) {
	// identical coordinates and scores: input order decides
	c := north(1)
	candidates := []domain.Candidate{
		{ID: "first", Coordinates: c},
		{ID: "second", Coordinates: c},
		{ID: "third", Coordinates: c},
	}
	got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(50), Options: DefaultOptions()})
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Candidate.ID != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].Candidate.ID, want)
		}
	}

	// equal combined score with distance weight zero: nearer wins
	opts := Options{TasteWeight: 1, MaxDistanceKm: 10}
	got = Rank(Input{
		Candidates: []domain.Candidate{{ID: "far", Coordinates: north(3)}, {ID: "near", Coordinates: north(0.5)}},
		From:       userLocation,
		Scorer:     constScorer(50),
		Options:    opts,
	})
	if got[0].Candidate.ID != "near" {
		t.Errorf("distance should break combined-score ties, got %s first", got[0].Candidate.ID)
	}
}

func TestRankLimit(t *testing.T) {
	var candidates []domain.Candidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, domain.Candidate{ID: "c", Coordinates: north(float64(i) * 0.5)})
	}
	opts := DefaultOptions()
	opts.Limit = 3
	if got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(50), Options: opts}); len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}

func TestRankRegionFilter(t *testing.T) {
	digbeth := func(dLat float64) *domain.Coordinates {
		return &domain.Coordinates{Latitude: 52.4751 + dLat, Longitude: -1.8839}
	}
	candidates := []domain.Candidate{
		{ID: "centre", Coordinates: north(0.05)},
		{ID: "dig-1", Coordinates: digbeth(0.001)},
		{ID: "moseley", Coordinates: &domain.Coordinates{Latitude: 52.4460, Longitude: -1.8870}},
		{ID: "dig-2", Coordinates: digbeth(-0.002)},
		{ID: "jq", Coordinates: &domain.Coordinates{Latitude: 52.4890, Longitude: -1.9110}},
	}

	opts := DefaultOptions()
	opts.PreferredRegion = "Digbeth"
	opts.OnlyPreferredRegion = true

	got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(100), Options: opts})
	if len(got) != 2 {
		t.Fatalf("expected 2 Digbeth results, got %d: %+v", len(got), got)
	}
	for _, r := range got {
		if r.Region != "Digbeth" {
			t.Errorf("unexpected region %q for %s", r.Region, r.Candidate.ID)
		}
	}

	// preference set but not enforced: everything within range survives
	opts.OnlyPreferredRegion = false
	if got := Rank(Input{Candidates: candidates, From: userLocation, Scorer: constScorer(100), Options: opts}); len(got) != 5 {
		t.Errorf("expected 5 results without the filter, got %d", len(got))
	}
}

func TestSortByDistance(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "none-1"},
		{ID: "far", Coordinates: north(4)},
		{ID: "none-2"},
		{ID: "near", Coordinates: north(0.4)},
	}

	got := SortByDistance(candidates, userLocation)
	want := []string{"near", "far", "none-1", "none-2"}
	for i := range want {
		if got[i].Candidate.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if !math.IsInf(got[3].DistanceKm, 1) {
		t.Errorf("missing coordinates should be infinitely far, got %f", got[3].DistanceKm)
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
	bad := []Options{
		{TasteWeight: -1, DistanceWeight: 0.3, MaxDistanceKm: 10},
		{TasteWeight: 0.7, DistanceWeight: 0.3, MaxDistanceKm: 0},
		{TasteWeight: 0.7, DistanceWeight: math.NaN(), MaxDistanceKm: 10},
		{TasteWeight: 0.7, DistanceWeight: 0.3, MaxDistanceKm: 10, Limit: -1},
	}
	for _, o := range bad {
		if err := o.Validate(); err == nil {
			t.Errorf("expected error for %+v", o)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(math.NaN(), 0, 100) != 0 {
		t.Error("NaN should clamp to lo")
	}
	if Clamp(-5, 0, 100) != 0 || Clamp(105, 0, 100) != 100 || Clamp(42, 0, 100) != 42 {
		t.Error("clamp bounds wrong")
	}
}

func ids(s []Scored) []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Candidate.ID
	}
	return out
}
