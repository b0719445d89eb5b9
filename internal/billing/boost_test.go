package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusegigs/fusegigs/internal/billing"
)

func TestBoostCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		boostType billing.BoostType
		name      string
		priceZAR  int64
		duration  time.Duration
	}{
		{billing.BoostGig24h, "24-Hour Gig Boost", 29, 24 * time.Hour},
		{billing.BoostFeatured7d, "7-Day Featured Placement", 79, 7 * 24 * time.Hour},
		{billing.BoostProfile, "Profile Boost", 49, 7 * 24 * time.Hour},
		{billing.BoostUrgent, "Urgent Tag", 19, 72 * time.Hour},
		{billing.BoostCategorySpotlight, "Category Spotlight", 59, 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.boostType), func(t *testing.T) {
			t.Parallel()

			product, err := billing.BoostProductFor(tt.boostType)
			require.NoError(t, err)
			assert.Equal(t, tt.name, product.Name)
			assert.Equal(t, tt.priceZAR, product.PriceZAR)
			assert.Equal(t, tt.duration, product.Duration)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		_, err := billing.BoostProductFor("mega_boost")
		assert.ErrorIs(t, err, billing.ErrInvalidBoostType)
	})

	t.Run("description names the duration", func(t *testing.T) {
		t.Parallel()

		product, err := billing.BoostProductFor(billing.BoostUrgent)
		require.NoError(t, err)
		assert.Equal(t, "Boost your visibility for 72 hours", product.Description())
	})
}
