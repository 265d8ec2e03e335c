package billing

import (
	"fmt"

	"github.com/bads1de/CareerRise/internal/permissions"
)

// Plans maps Stripe price ids to tiers.
type Plans struct {
	ProPriceID     string
	ProPlusPriceID string
}

func (p Plans) TierForPrice(priceID string) (permissions.Tier, error) {
	switch {
	case priceID == "":
		return permissions.Free, fmt.Errorf("%w: empty price", ErrUnknownPrice)
	case priceID == p.ProPriceID:
		return permissions.Pro, nil
	case priceID == p.ProPlusPriceID:
		return permissions.ProPlus, nil
	default:
		return permissions.Free, fmt.Errorf("%w: %s", ErrUnknownPrice, priceID)
	}
}

// Known reports whether priceID is one of the configured plan prices.
func (p Plans) Known(priceID string) bool {
	_, err := p.TierForPrice(priceID)
	return err == nil
}
