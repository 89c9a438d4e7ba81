package profile

import (
	"math"
	"strings"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
)

const (
	// NeutralScore is returned when there is no profile to score against.
	NeutralScore = 70.0

	baseScore     = 50.0
	cuisineBonus  = 25.0
	priceBonus    = 15.0
	vibeBonus     = 10.0
	visitedBonus  = 5.0
	savedBonus    = 10.0
	maxMatchScore = 100.0
)

// MatchScore is the taste affinity of c for profile p, in [0,100].
func MatchScore(p *domain.TasteProfile, c domain.Candidate) float64 {
	if p == nil {
		return NeutralScore
	}

	score := baseScore
	if cuisineMatches(p.Cuisines, c.Cuisine) {
		score += cuisineBonus
	}
	if domain.PriceTierOf(c.PriceLevel) == p.PricePreference {
		score += priceBonus
	}
	for _, vibe := range c.Ambience {
		if containsFold(p.PreferredVibes, vibe) {
			score += vibeBonus
			break
		}
	}
	if c.ID != "" && indexOf(p.VisitedIDs, c.ID) >= 0 {
		score += visitedBonus
	}
	if c.ID != "" && indexOf(p.SavedIDs, c.ID) >= 0 {
		score += savedBonus
	}

	return math.Min(maxMatchScore, math.Max(0, score))
}

func cuisineMatches(preferred []string, cuisine string) bool {
	cuisine = strings.ToLower(strings.TrimSpace(cuisine))
	if cuisine == "" {
		return false
	}
	for _, pref := range preferred {
		pref = strings.ToLower(strings.TrimSpace(pref))
		if pref == "" {
			continue
		}
		if strings.Contains(cuisine, pref) || strings.Contains(pref, cuisine) {
			return true
		}
	}
	return false
}
