package domain

import (
	"fmt"
	"strings"
	"time"
)

type SpiceLevel string

const (
	SpiceMild   SpiceLevel = "mild"
	SpiceMedium SpiceLevel = "medium"
	SpiceHot    SpiceLevel = "hot"
)

func ParseSpiceLevel(s string) (SpiceLevel, error) {
	switch SpiceLevel(strings.ToLower(strings.TrimSpace(s))) {
	case SpiceMild:
		return SpiceMild, nil
	case SpiceMedium:
		return SpiceMedium, nil
	case SpiceHot:
		return SpiceHot, nil
	}
	return "", fmt.Errorf("unknown spice level %q", s)
}

type PriceTier string

const (
	PriceBudget  PriceTier = "budget"
	PriceMid     PriceTier = "mid"
	PricePremium PriceTier = "premium"
)

func ParsePriceTier(s string) (PriceTier, error) {
	switch PriceTier(strings.ToLower(strings.TrimSpace(s))) {
	case PriceBudget:
		return PriceBudget, nil
	case PriceMid:
		return PriceMid, nil
	case PricePremium:
		return PricePremium, nil
	}
	return "", fmt.Errorf("unknown price tier %q", s)
}

// Caps for the bounded profile lists.
const (
	MaxProfileCuisines = 5
	MaxVisitedIDs      = 20
	MaxPreferredVibes  = 8
)

// TasteProfile is the per-session preference record.
type TasteProfile struct {
	SpiceLevel        SpiceLevel `json:"spice_level"`
	Cuisines          []string   `json:"cuisines"`
	PricePreference   PriceTier  `json:"price_preference"`
	Proteins          []string   `json:"proteins"`
	SavedIDs          []string   `json:"saved_ids"`
	VisitedIDs        []string   `json:"visited_ids"`
	PreferredVibes    []string   `json:"preferred_vibes"`
	LastInteractionAt *time.Time `json:"last_interaction_at"`
}

// NewTasteProfile returns the profile created on first interaction.
func NewTasteProfile() *TasteProfile {
	return &TasteProfile{
		SpiceLevel:      SpiceMedium,
		PricePreference: PriceMid,
		Cuisines:        []string{},
		Proteins:        []string{},
		SavedIDs:        []string{},
		VisitedIDs:      []string{},
		PreferredVibes:  []string{},
	}
}

func (p *TasteProfile) IsComplete() bool {
	return p != nil && len(p.Cuisines) > 0 && len(p.Proteins) > 0
}

// Clone returns a deep copy.
func (p *TasteProfile) Clone() *TasteProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Cuisines = append([]string{}, p.Cuisines...)
	out.Proteins = append([]string{}, p.Proteins...)
	out.SavedIDs = append([]string{}, p.SavedIDs...)
	out.VisitedIDs = append([]string{}, p.VisitedIDs...)
	out.PreferredVibes = append([]string{}, p.PreferredVibes...)
	if p.LastInteractionAt != nil {
		t := *p.LastInteractionAt
		out.LastInteractionAt = &t
	}
	return &out
}

type InteractionKind string

const (
	InteractionView  InteractionKind = "view"
	InteractionSave  InteractionKind = "save"
	InteractionOrder InteractionKind = "order"
)

func ParseInteractionKind(s string) (InteractionKind, error) {
	switch InteractionKind(strings.ToLower(strings.TrimSpace(s))) {
	case InteractionView:
		return InteractionView, nil
	case InteractionSave:
		return InteractionSave, nil
	case InteractionOrder:
		return InteractionOrder, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInteraction, s)
}

// LocationPreferences is the persisted location record of a session.
// DeviceLocation is the last reported device position; it is only carried
// in the stored record so a revived session keeps it.
type LocationPreferences struct {
	ManualLocation      *Coordinates `json:"manual_location,omitempty"`
	DeviceLocation      *Coordinates `json:"device_location,omitempty"`
	PreferredRegion     string       `json:"preferred_region,omitempty"`
	OnlyPreferredRegion bool         `json:"only_preferred_region"`
}

const currencySymbols = "£$€₦"

// PriceTierOf derives a tier from the number of currency symbols in a price
// level string such as "££". Zero or one symbol is budget, so an empty level
// counts as budget too.
func PriceTierOf(priceLevel string) PriceTier {
	n := 0
	for _, r := range priceLevel {
		if strings.ContainsRune(currencySymbols, r) {
			n++
		}
	}
	switch {
	case n <= 1:
		return PriceBudget
	case n == 2:
		return PriceMid
	default:
		return PricePremium
	}
}
