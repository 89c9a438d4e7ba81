// Package ranking blends taste affinity and proximity into one ordering.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/geo"
	"github.com/actuallystonmai/venue-recommender/internal/metrics"
)

const (
	DefaultTasteWeight    = 0.7
	DefaultDistanceWeight = 0.3
	DefaultMaxDistanceKm  = 10.0

	maxScore = 100.0
)

// Scorer returns the taste affinity of a candidate in [0,100].
type Scorer interface {
	MatchScore(c domain.Candidate) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(c domain.Candidate) float64

func (f ScorerFunc) MatchScore(c domain.Candidate) float64 { return f(c) }

type Options struct {
	TasteWeight    float64 `json:"taste_weight"`
	DistanceWeight float64 `json:"distance_weight"`
	MaxDistanceKm  float64 `json:"max_distance_km"`
	// Limit truncates the result; 0 keeps everything.
	Limit int `json:"limit"`

	PreferredRegion     string `json:"preferred_region,omitempty"`
	OnlyPreferredRegion bool   `json:"only_preferred_region"`
}

func DefaultOptions() Options {
	return Options{
		TasteWeight:    DefaultTasteWeight,
		DistanceWeight: DefaultDistanceWeight,
		MaxDistanceKm:  DefaultMaxDistanceKm,
	}
}

// Validate rejects options that cannot produce a meaningful ranking.
func (o Options) Validate() error {
	if math.IsNaN(o.TasteWeight) || o.TasteWeight < 0 {
		return fmt.Errorf("taste weight must be non-negative, got %f", o.TasteWeight)
	}
	if math.IsNaN(o.DistanceWeight) || o.DistanceWeight < 0 {
		return fmt.Errorf("distance weight must be non-negative, got %f", o.DistanceWeight)
	}
	if math.IsNaN(o.MaxDistanceKm) || o.MaxDistanceKm <= 0 {
		return fmt.Errorf("max distance must be positive, got %f", o.MaxDistanceKm)
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", o.Limit)
	}
	return nil
}

// normalized falls back to defaults for unusable values so Rank stays total.
func (o Options) normalized() Options {
	if math.IsNaN(o.TasteWeight) || o.TasteWeight < 0 {
		o.TasteWeight = 0
	}
	if math.IsNaN(o.DistanceWeight) || o.DistanceWeight < 0 {
		o.DistanceWeight = 0
	}
	if math.IsNaN(o.MaxDistanceKm) || math.IsInf(o.MaxDistanceKm, 0) || o.MaxDistanceKm <= 0 {
		o.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if o.Limit < 0 {
		o.Limit = 0
	}
	return o
}

// Scored is a candidate with its score components.
type Scored struct {
	Candidate     domain.Candidate
	TasteScore    float64
	DistanceKm    float64
	CombinedScore float64
	// Region is the named region containing the candidate, empty when the
	// candidate lies outside every region.
	Region string
}

type Input struct {
	Candidates []domain.Candidate
	From       domain.Coordinates
	Scorer     Scorer
	Options    Options
}

// Rank filters, scores, orders and truncates the candidates. Candidates with
// missing or invalid coordinates count as infinitely far and are dropped by
// the distance cutoff.
func Rank(in Input) []Scored {
	start := time.Now()
	opts := in.Options.normalized()

	scorer := in.Scorer
	if scorer == nil {
		scorer = ScorerFunc(func(domain.Candidate) float64 { return 0 })
	}

	scored := make([]Scored, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		region := regionOf(c)
		if opts.OnlyPreferredRegion && opts.PreferredRegion != "" &&
			!strings.EqualFold(region, opts.PreferredRegion) {
			continue
		}

		dist := math.Inf(1)
		if c.HasLocation() {
			dist = geo.Distance(in.From, *c.Coordinates)
		}
		if math.IsInf(dist, 1) || math.IsNaN(dist) || dist > opts.MaxDistanceKm {
			continue
		}

		taste := Clamp(scorer.MatchScore(c), 0, maxScore)
		proximity := maxScore * Clamp(1-dist/opts.MaxDistanceKm, 0, 1)
		combined := Clamp(opts.TasteWeight*taste+opts.DistanceWeight*proximity, 0, maxScore)

		scored = append(scored, Scored{
			Candidate:     c,
			TasteScore:    taste,
			DistanceKm:    dist,
			CombinedScore: combined,
			Region:        region,
		})
	}

	// Stable sort keeps input order as the last tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].CombinedScore != scored[j].CombinedScore {
			return scored[i].CombinedScore > scored[j].CombinedScore
		}
		return scored[i].DistanceKm < scored[j].DistanceKm
	})

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}

	metrics.RankingPasses.Inc()
	metrics.RankedCandidates.Observe(float64(len(scored)))
	metrics.RankingDuration.Observe(time.Since(start).Seconds())

	return scored
}

// SortByDistance orders every candidate by distance from `from`. Candidates
// without usable coordinates keep their input order at the end.
func SortByDistance(candidates []domain.Candidate, from domain.Coordinates) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		dist := math.Inf(1)
		if c.HasLocation() {
			dist = geo.Distance(from, *c.Coordinates)
		}
		out = append(out, Scored{Candidate: c, DistanceKm: dist, Region: regionOf(c)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Clamp bounds v to [lo, hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func regionOf(c domain.Candidate) string {
	if !c.HasLocation() {
		return ""
	}
	if r, ok := geo.LookupRegion(*c.Coordinates); ok {
		return r.Name
	}
	return ""
}
