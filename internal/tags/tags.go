// Package tags derives descriptive labels for a venue from its static
// attributes. Generation is pure and deterministic.
package tags

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
)

type keywordRule struct {
	label      string
	category   domain.TagCategory
	confidence float64
	keywords   []string
	// fields selects which text the keywords are matched against.
	fields fieldSet
}

type fieldSet uint8

const (
	fieldName fieldSet = 1 << iota
	fieldCuisine
	fieldDescription
	fieldAmbience
	fieldDishes

	fieldText = fieldName | fieldCuisine | fieldDescription
	fieldAll  = fieldText | fieldAmbience | fieldDishes
)

// rules are evaluated in order; the order is also the tie-break for Hero.
var rules = []keywordRule{
	{"Date night", domain.TagOccasion, 88, []string{"romantic", "intimate", "candlelit"}, fieldAmbience | fieldDescription},
	{"Vegan friendly", domain.TagDietary, 90, []string{"vegan", "plant-based", "plant based"}, fieldAll},
	{"Halal", domain.TagDietary, 90, []string{"halal"}, fieldAll},
	{"Vegetarian options", domain.TagDietary, 82, []string{"vegetarian", "veggie"}, fieldAll},
	{"Gluten-free options", domain.TagDietary, 75, []string{"gluten-free", "gluten free", "coeliac"}, fieldText | fieldDishes},
	{"Family friendly", domain.TagOccasion, 82, []string{"family", "kids"}, fieldAmbience | fieldDescription},
	{"Great for groups", domain.TagOccasion, 72, []string{"lively", "sharing", "group", "buzzing"}, fieldAmbience | fieldDescription},
	{"Brunch spot", domain.TagOccasion, 80, []string{"brunch", "breakfast"}, fieldText | fieldDishes},
	{"Spicy kick", domain.TagVibe, 76, []string{"spicy", "chili", "chilli", "pepper", "suya", "jerk"}, fieldAll},
	{"Late night", domain.TagTime, 75, []string{"late night", "late-night", "open late", "till late"}, fieldDescription | fieldAmbience},
}

// vibeConfidence is the confidence of a tag copied straight from ambience.
const vibeConfidence = 85

// Generate returns the tags of c in generation order.
func Generate(c domain.Candidate) []domain.Tag {
	var out []domain.Tag
	seen := make(map[string]bool)
	add := func(t domain.Tag) {
		key := strings.ToLower(t.Label)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, t)
	}

	if c.IsOpen {
		add(domain.Tag{Label: "Open now", Category: domain.TagTime, Confidence: 70})
	}

	for _, a := range c.Ambience {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		add(domain.Tag{Label: titleCase(a), Category: domain.TagVibe, Confidence: vibeConfidence})
	}

	for _, r := range rules {
		if r.matches(c) {
			add(domain.Tag{Label: r.label, Category: r.category, Confidence: r.confidence})
		}
	}

	if len(c.SignatureDishes) >= 3 {
		add(domain.Tag{Label: "Foodie pick", Category: domain.TagOccasion, Confidence: 72})
	}

	// no price tag without a price level to describe
	if strings.TrimSpace(c.PriceLevel) != "" {
		switch domain.PriceTierOf(c.PriceLevel) {
		case domain.PriceBudget:
			add(domain.Tag{Label: "Budget friendly", Category: domain.TagPrice, Confidence: 80})
		case domain.PriceMid:
			add(domain.Tag{Label: "Good value", Category: domain.TagPrice, Confidence: 60})
		case domain.PricePremium:
			add(domain.Tag{Label: "Special treat", Category: domain.TagPrice, Confidence: 78})
		}
	}

	return out
}

// Hero picks the single most confident tag; the earliest generated wins ties.
func Hero(c domain.Candidate) (domain.Tag, bool) {
	return HeroOf(Generate(c))
}

func HeroOf(tags []domain.Tag) (domain.Tag, bool) {
	if len(tags) == 0 {
		return domain.Tag{}, false
	}
	best := tags[0]
	for _, t := range tags[1:] {
		if t.Confidence > best.Confidence {
			best = t
		}
	}
	return best, true
}

func (r keywordRule) matches(c domain.Candidate) bool {
	var texts []string
	if r.fields&fieldName != 0 {
		texts = append(texts, c.Name)
	}
	if r.fields&fieldCuisine != 0 {
		texts = append(texts, c.Cuisine)
	}
	if r.fields&fieldDescription != 0 {
		texts = append(texts, c.Description)
	}
	if r.fields&fieldAmbience != 0 {
		texts = append(texts, c.Ambience...)
	}
	if r.fields&fieldDishes != 0 {
		texts = append(texts, c.SignatureDishes...)
	}

	for _, text := range texts {
		text = strings.ToLower(text)
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
