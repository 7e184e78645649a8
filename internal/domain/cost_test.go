package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/domain"
)

func TestCostCalculator_Cost(t *testing.T) {
	ctx := context.Background()
	table := domain.NewPricingTable()
	require.NoError(t, table.Register(ctx, "gpt-4o-mini", domain.ModelPricing{
		InputPerMillion:  0.15,
		OutputPerMillion: 0.60,
	}))

	calculator := domain.NewCostCalculator(table)

	tests := []struct {
		name  string
		model string
		usage domain.Usage
		want  float64
	}{
		{
			name:  "prices both directions",
			model: "gpt-4o-mini",
			usage: domain.Usage{PromptTokens: 2_000_000, CompletionTokens: 500_000},
			want:  0.60,
		},
		{
			name:  "small request",
			model: "gpt-4o-mini",
			usage: domain.Usage{PromptTokens: 1200, CompletionTokens: 300},
			want:  0.00036,
		},
		{
			name:  "unpriced model is free",
			model: "unknown",
			usage: domain.Usage{PromptTokens: 1000, CompletionTokens: 1000},
			want:  0,
		},
		{
			name:  "no tokens",
			model: "gpt-4o-mini",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, calculator.Cost(ctx, tt.model, tt.usage), 1e-9)
		})
	}
}

func TestPricingTable(t *testing.T) {
	ctx := context.Background()
	table := domain.NewPricingTable()

	_, err := table.Pricing(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrPricingNotFound)

	require.Error(t, table.Register(ctx, "", domain.ModelPricing{}))
	require.Error(t, table.Register(ctx, "m", domain.ModelPricing{InputPerMillion: -1}))

	require.NoError(t, table.Register(ctx, "m", domain.ModelPricing{InputPerMillion: 1, OutputPerMillion: 2}))
	require.NoError(t, table.Register(ctx, "m", domain.ModelPricing{InputPerMillion: 3, OutputPerMillion: 4}))

	pricing, err := table.Pricing(ctx, "m")
	require.NoError(t, err)
	require.Equal(t, domain.ModelPricing{InputPerMillion: 3, OutputPerMillion: 4}, pricing)
}
