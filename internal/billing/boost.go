package billing

import (
	"fmt"
	"time"
)

// BoostType identifies a purchasable visibility promotion.
type BoostType string

const (
	BoostGig24h            BoostType = "gig_24h"
	BoostFeatured7d        BoostType = "featured_7d"
	BoostProfile           BoostType = "profile"
	BoostUrgent            BoostType = "urgent"
	BoostCategorySpotlight BoostType = "category_spotlight"
)

// BoostProduct is a catalog entry. Prices are in whole ZAR; the provider
// layer converts to cents at the API boundary.
type BoostProduct struct {
	Type     BoostType
	Name     string
	PriceZAR int64
	Duration time.Duration
}

// Description renders the product line shown at checkout.
func (p BoostProduct) Description() string {
	return fmt.Sprintf("Boost your visibility for %d hours", int(p.Duration.Hours()))
}

// boostCatalog is the server-side source of truth for boost pricing. The
// client never sends a price, only a type.
var boostCatalog = map[BoostType]BoostProduct{
	BoostGig24h:            {Type: BoostGig24h, Name: "24-Hour Gig Boost", PriceZAR: 29, Duration: 24 * time.Hour},
	BoostFeatured7d:        {Type: BoostFeatured7d, Name: "7-Day Featured Placement", PriceZAR: 79, Duration: 7 * 24 * time.Hour},
	BoostProfile:           {Type: BoostProfile, Name: "Profile Boost", PriceZAR: 49, Duration: 7 * 24 * time.Hour},
	BoostUrgent:            {Type: BoostUrgent, Name: "Urgent Tag", PriceZAR: 19, Duration: 72 * time.Hour},
	BoostCategorySpotlight: {Type: BoostCategorySpotlight, Name: "Category Spotlight", PriceZAR: 59, Duration: 7 * 24 * time.Hour},
}

// BoostProductFor looks up a catalog entry by type.
func BoostProductFor(t BoostType) (BoostProduct, error) {
	p, ok := boostCatalog[t]
	if !ok {
		return BoostProduct{}, fmt.Errorf("%w: %q", ErrInvalidBoostType, t)
	}
	return p, nil
}
