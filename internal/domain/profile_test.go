package domain

import "testing"

func TestPriceTierOf(t *testing.T) {
	tests := map[string]PriceTier{
		"":      PriceBudget,
		"cheap": PriceBudget,
		"£":     PriceBudget,
		"££":    PriceMid,
		"$$":    PriceMid,
		"£££":   PricePremium,
		"₦₦₦₦":  PricePremium,
	}
	for in, want := range tests {
		if got := PriceTierOf(in); got != want {
			t.Errorf("PriceTierOf(%q) = %q, want %q", in, got, want)
		}
	}
}
