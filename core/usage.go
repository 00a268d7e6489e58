package core

// UsageSummary is a read-only snapshot of the tokens and cost
// accumulated by a session over its lifetime.
type UsageSummary struct {
	ConversationID    string  `json:"conversation_id"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalTokens       int64   `json:"total_tokens"`
	TotalCost         float64 `json:"total_cost"`
}
