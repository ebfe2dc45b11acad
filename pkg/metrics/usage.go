package metrics

// TokenUsage is what one model call cost, as reported by the provider.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	ToolUseTokens    int `json:"toolUseTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// NewTokenUsage builds a TokenUsage from raw provider counters. A missing total
// is derived from the parts.
func NewTokenUsage(prompt, completion, toolUse, total int32) TokenUsage {
	u := TokenUsage{
		PromptTokens:     int(prompt),
		CompletionTokens: int(completion),
		ToolUseTokens:    int(toolUse),
		TotalTokens:      int(total),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens + u.ToolUseTokens
	}
	return u
}

// IsZero reports whether the provider sent no usage at all.
func (u TokenUsage) IsZero() bool {
	return u == TokenUsage{}
}
