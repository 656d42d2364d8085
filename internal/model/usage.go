package model

import "encoding/json"

// TokenUsage contains token counts from a Claude API response
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// Add accumulates other into u
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// ModelPricing contains pricing info for a model, in USD per million tokens
type ModelPricing struct {
	InputPerMillion      float64
	OutputPerMillion     float64
	CacheReadPerMillion  float64
	CacheWritePerMillion float64
}

// PricingTier is one entry of the canonical pricing table
type PricingTier struct {
	Model   string
	Pricing ModelPricing
}

// SessionSummary is the reduction of a single session log file.
// Cost is rounded to 4 decimal places; RawCost keeps the unrounded value so
// collection-level totals can be summed before rounding.
type SessionSummary struct {
	SessionID         string         `json:"session_id"`
	Title             string         `json:"title"`
	Date              string         `json:"date"`
	FirstTS           string         `json:"first_ts"`
	LastTS            string         `json:"last_ts"`
	Models            map[string]int `json:"models"`
	APICalls          int            `json:"api_calls"`
	InputTokens       int64          `json:"input_tokens"`
	OutputTokens      int64          `json:"output_tokens"`
	CacheReadTokens   int64          `json:"cache_read_tokens"`
	CacheCreateTokens int64          `json:"cache_create_tokens"`
	Cost              float64        `json:"cost"`
	RawCost           float64        `json:"-"`

	// Set by the stats operation only
	Project       string `json:"project,omitempty"`
	ProjectFolder string `json:"project_folder,omitempty"`
}

// MarshalJSON writes null for an absent title, date or timestamp
func (s SessionSummary) MarshalJSON() ([]byte, error) {
	type plain SessionSummary
	return json.Marshal(struct {
		plain
		Title   *string `json:"title"`
		Date    *string `json:"date"`
		FirstTS *string `json:"first_ts"`
		LastTS  *string `json:"last_ts"`
	}{
		plain:   plain(s),
		Title:   nullable(s.Title),
		Date:    nullable(s.Date),
		FirstTS: nullable(s.FirstTS),
		LastTS:  nullable(s.LastTS),
	})
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Usage returns the session token counters as a TokenUsage
func (s SessionSummary) Usage() TokenUsage {
	return TokenUsage{
		InputTokens:              s.InputTokens,
		OutputTokens:             s.OutputTokens,
		CacheCreationInputTokens: s.CacheCreateTokens,
		CacheReadInputTokens:     s.CacheReadTokens,
	}
}

// ProjectEntry describes one project folder under the data directory
type ProjectEntry struct {
	Folder   string `json:"folder"`
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
}

// AggregateStats is the result of the stats operation
type AggregateStats struct {
	APICalls          int              `json:"api_calls"`
	Sessions          int              `json:"sessions"`
	InputTokens       int64            `json:"input_tokens"`
	OutputTokens      int64            `json:"output_tokens"`
	CacheReadTokens   int64            `json:"cache_read_tokens"`
	CacheCreateTokens int64            `json:"cache_create_tokens"`
	Models            map[string]int   `json:"models"`
	FilesScanned      int              `json:"files_scanned"`
	Cost              float64          `json:"cost"`
	SessionsList      []SessionSummary `json:"sessions_list"`
}

// ModelCount is one row of a model breakdown
type ModelCount struct {
	Model   string  `json:"model"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DailyReport summarizes the log files last modified on a given day
type DailyReport struct {
	Date         string       `json:"date"`
	Dir          string       `json:"dir"`
	FilesMatched int          `json:"files_matched"`
	Sessions     int          `json:"sessions"`
	Lines        int          `json:"lines"`
	APICalls     int          `json:"api_calls"`
	Models       []ModelCount `json:"models"`
}
