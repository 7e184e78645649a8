package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const tokensPerMillion = 1_000_000.0

// ErrPricingNotFound is returned for a model with no registered pricing.
var ErrPricingNotFound = errors.New("pricing not found")

// ModelPricing is the USD price of one million tokens for a model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// PricingRegistry maintains pricing information for models.
type PricingRegistry interface {
	// Pricing returns the pricing of a model.
	Pricing(ctx context.Context, model string) (ModelPricing, error)

	// Register adds or replaces the pricing of a model.
	Register(ctx context.Context, model string, pricing ModelPricing) error
}

// PricingTable is an in-memory PricingRegistry.
type PricingTable struct {
	mu     sync.RWMutex
	models map[string]ModelPricing
}

// NewPricingTable creates an empty pricing table.
func NewPricingTable() *PricingTable {
	return &PricingTable{models: make(map[string]ModelPricing)}
}

// Pricing implements PricingRegistry.
func (t *PricingTable) Pricing(_ context.Context, model string) (ModelPricing, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pricing, ok := t.models[model]
	if !ok {
		return ModelPricing{}, fmt.Errorf("%w: %s", ErrPricingNotFound, model)
	}
	return pricing, nil
}

// Register implements PricingRegistry.
func (t *PricingTable) Register(_ context.Context, model string, pricing ModelPricing) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	if pricing.InputPerMillion < 0 || pricing.OutputPerMillion < 0 {
		return fmt.Errorf("negative pricing for model %s", model)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.models[model] = pricing
	return nil
}

// CostCalculator prices completion token usage.
type CostCalculator struct {
	registry PricingRegistry
}

// NewCostCalculator creates a cost calculator (DI constructor).
func NewCostCalculator(registry PricingRegistry) *CostCalculator {
	return &CostCalculator{registry: registry}
}

// Cost returns the USD cost of usage on model. Models without pricing cost 0.
func (c *CostCalculator) Cost(ctx context.Context, model string, usage Usage) float64 {
	pricing, err := c.registry.Pricing(ctx, model)
	if err != nil {
		return 0
	}

	return float64(usage.PromptTokens)/tokensPerMillion*pricing.InputPerMillion +
		float64(usage.CompletionTokens)/tokensPerMillion*pricing.OutputPerMillion
}
