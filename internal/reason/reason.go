// Package reason explains a ranked result in one short phrase.
package reason

import (
	"fmt"
	"math"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
)

const (
	TopMatch        = "Top match for you right now"
	DefaultFallback = "Recommended for you"

	topPickThreshold = 85.0
	justThresholdKm  = 0.5
	onlyThresholdKm  = 1.0
	tasteThreshold   = 80.0
)

// Input carries the score components a reason is derived from.
type Input struct {
	IsTopPick     bool
	CombinedScore float64
	TasteScore    float64
	DistanceKm    float64
	DistanceText  string
	// Region is empty when the venue is outside every named region.
	Region string
}

// For returns the first matching reason. Rules are checked in priority order
// and exactly one reason is produced.
func For(in Input, fallback string) string {
	switch {
	case in.IsTopPick && in.CombinedScore > topPickThreshold:
		return TopMatch
	case in.DistanceKm < justThresholdKm:
		return "Just " + in.DistanceText
	case in.DistanceKm < onlyThresholdKm:
		return "Only " + in.DistanceText
	case in.TasteScore > tasteThreshold:
		return fmt.Sprintf("%d%% taste match", int(math.Round(in.TasteScore)))
	case in.Region != "":
		return "In " + in.Region
	}
	if fallback == "" {
		return DefaultFallback
	}
	return fallback
}

// Attach marks the first result as the top pick and sets every reason.
func Attach(results []domain.RankedResult, fallback string) {
	for i := range results {
		r := &results[i]
		r.IsTopPick = i == 0
		r.Reason = For(Input{
			IsTopPick:     r.IsTopPick,
			CombinedScore: r.CombinedScore,
			TasteScore:    r.TasteScore,
			DistanceKm:    r.DistanceKm,
			DistanceText:  r.DistanceText,
			Region:        r.Region,
		}, fallback)
	}
}
