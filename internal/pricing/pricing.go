package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lain-code/lain/internal/model"
)

const tokensPerMillion = 1_000_000

// table is the canonical pricing list, USD per million tokens.
// Order matters: prefix matching returns the first hit.
var table = []model.PricingTier{
	{Model: "claude-opus-4-6", Pricing: model.ModelPricing{InputPerMillion: 5, OutputPerMillion: 25, CacheReadPerMillion: 0.5, CacheWritePerMillion: 6.25}},
	{Model: "claude-opus-4-5", Pricing: model.ModelPricing{InputPerMillion: 5, OutputPerMillion: 25, CacheReadPerMillion: 0.5, CacheWritePerMillion: 6.25}},
	{Model: "claude-opus-4-1", Pricing: model.ModelPricing{InputPerMillion: 15, OutputPerMillion: 75, CacheReadPerMillion: 1.5, CacheWritePerMillion: 18.75}},
	{Model: "claude-opus-4", Pricing: model.ModelPricing{InputPerMillion: 15, OutputPerMillion: 75, CacheReadPerMillion: 1.5, CacheWritePerMillion: 18.75}},
	{Model: "claude-sonnet-4-6", Pricing: model.ModelPricing{InputPerMillion: 3, OutputPerMillion: 15, CacheReadPerMillion: 0.3, CacheWritePerMillion: 3.75}},
	{Model: "claude-sonnet-4-5", Pricing: model.ModelPricing{InputPerMillion: 3, OutputPerMillion: 15, CacheReadPerMillion: 0.3, CacheWritePerMillion: 3.75}},
	{Model: "claude-sonnet-4", Pricing: model.ModelPricing{InputPerMillion: 3, OutputPerMillion: 15, CacheReadPerMillion: 0.3, CacheWritePerMillion: 3.75}},
	{Model: "claude-sonnet-3-7", Pricing: model.ModelPricing{InputPerMillion: 3, OutputPerMillion: 15, CacheReadPerMillion: 0.3, CacheWritePerMillion: 3.75}},
	{Model: "claude-haiku-4-5", Pricing: model.ModelPricing{InputPerMillion: 1, OutputPerMillion: 5, CacheReadPerMillion: 0.1, CacheWritePerMillion: 1.25}},
	{Model: "claude-haiku-3-5", Pricing: model.ModelPricing{InputPerMillion: 0.8, OutputPerMillion: 4, CacheReadPerMillion: 0.08, CacheWritePerMillion: 1.0}},
	{Model: "claude-opus-3", Pricing: model.ModelPricing{InputPerMillion: 15, OutputPerMillion: 75, CacheReadPerMillion: 1.5, CacheWritePerMillion: 18.75}},
	{Model: "claude-haiku-3", Pricing: model.ModelPricing{InputPerMillion: 0.25, OutputPerMillion: 1.25, CacheReadPerMillion: 0.03, CacheWritePerMillion: 0.3}},
}

// fallback is used for unknown models (Sonnet pricing as a reasonable default)
var fallback = model.ModelPricing{
	InputPerMillion:      3,
	OutputPerMillion:     15,
	CacheReadPerMillion:  0.3,
	CacheWritePerMillion: 3.75,
}

// Table returns a copy of the canonical pricing table in match order
func Table() []model.PricingTier {
	out := make([]model.PricingTier, len(table))
	copy(out, table)
	return out
}

// Fallback returns the pricing used when no table entry matches
func Fallback() model.ModelPricing {
	return fallback
}

// Lookup returns pricing for a model. Exact matches win, then the first table
// key the model starts with (dated ids like claude-sonnet-4-5-20250929), then
// the fallback.
func Lookup(modelName string) model.ModelPricing {
	for _, tier := range table {
		if tier.Model == modelName {
			return tier.Pricing
		}
	}
	for _, tier := range table {
		if strings.HasPrefix(modelName, tier.Model) {
			return tier.Pricing
		}
	}
	return fallback
}

// CalculateCost calculates the unrounded USD cost of usage at the given pricing
func CalculateCost(usage model.TokenUsage, p model.ModelPricing) float64 {
	cost := float64(usage.InputTokens) * p.InputPerMillion / tokensPerMillion
	cost += float64(usage.OutputTokens) * p.OutputPerMillion / tokensPerMillion
	cost += float64(usage.CacheReadInputTokens) * p.CacheReadPerMillion / tokensPerMillion
	cost += float64(usage.CacheCreationInputTokens) * p.CacheWritePerMillion / tokensPerMillion
	return cost
}

// Round rounds v to the given number of decimal places, half away from zero
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
