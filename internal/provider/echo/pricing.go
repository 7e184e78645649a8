package echo

import (
	"context"
	"fmt"

	"github.com/davidbz/scribe/internal/domain"
)

// RegisterPricing registers a zero price for the given echo model name.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry, model string) error {
	if err := registry.Register(ctx, model, domain.ModelPricing{}); err != nil {
		return fmt.Errorf("failed to register echo pricing: %w", err)
	}
	return nil
}
