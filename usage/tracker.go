package usage

import (
	"fmt"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// Pricing holds the cost per 1000 tokens in USD.
type Pricing struct {
	InputPerK  float64 `yaml:"input_per_k"`
	OutputPerK float64 `yaml:"output_per_k"`
}

// DefaultPricing returns the built-in per-1K token prices.
func DefaultPricing() Pricing {
	return Pricing{
		InputPerK:  0.003,
		OutputPerK: 0.015,
	}
}

// Cost computes the price of a single usage record.
func (p Pricing) Cost(u core.Usage) float64 {
	return float64(u.InputTokens)/1000*p.InputPerK +
		float64(u.OutputTokens)/1000*p.OutputPerK
}

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// Pricing overrides the default per-1K token prices.
	Pricing Pricing

	// Logger for per-turn usage records.
	Logger logging.Logger
}

// Tracker accumulates usage into sessions and persists them.
type Tracker struct {
	store   core.SessionStore
	pricing Pricing
	logger  logging.Logger
}

// NewTracker creates a Tracker writing through the given store.
func NewTracker(store core.SessionStore, optFns ...func(o *TrackerOptions)) *Tracker {
	opts := TrackerOptions{
		Pricing: DefaultPricing(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tracker{
		store:   store,
		pricing: opts.Pricing,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Track adds the usage of one endpoint response to the session's
// lifetime totals and saves the session. The session is mutated in
// place so callers see the new totals immediately.
func (t *Tracker) Track(sess *core.Session, u core.Usage) error {
	cost := t.pricing.Cost(u)

	sess.TotalInputTokens += u.InputTokens
	sess.TotalOutputTokens += u.OutputTokens
	sess.TotalCost += cost

	t.logger.Debug("tracked usage",
		"conversation_id", sess.ConversationID,
		"input_tokens", u.InputTokens,
		"output_tokens", u.OutputTokens,
		"turn_cost", cost,
		"total_cost", sess.TotalCost,
	)

	if err := t.store.Save(sess); err != nil {
		return fmt.Errorf("persist usage: %w", err)
	}
	return nil
}

// Summary returns a read-only snapshot of the session's totals.
func (t *Tracker) Summary(sess *core.Session) core.UsageSummary {
	return core.UsageSummary{
		ConversationID:    sess.ConversationID,
		TotalInputTokens:  sess.TotalInputTokens,
		TotalOutputTokens: sess.TotalOutputTokens,
		TotalTokens:       sess.TotalInputTokens + sess.TotalOutputTokens,
		TotalCost:         sess.TotalCost,
	}
}
