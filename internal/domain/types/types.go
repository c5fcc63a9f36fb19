// Package types contains the read-model shapes returned to API callers.
package types

// StepResult is the outcome of advancing one work unit by one bounded
// polling window. Exactly one of Pending/Done is true.
type StepResult struct {
	Pending bool     `json:"pending"`
	Done    bool     `json:"done"`
	Score   *float64 `json:"score,omitempty"`
}

// CategoryProgress is one rubric category's running subtotal.
type CategoryProgress struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Subtotal    int    `json:"subtotal"`
}

// JobProgress summarizes a scoring job for status polling.
type JobProgress struct {
	JobID             string             `json:"job_id"`
	Status            string             `json:"status"`
	ProcessedCount    int                `json:"processed_count"`
	TotalScore        int                `json:"total_score"`
	CompletionPercent float64            `json:"completion_percent"`
	ScorePercent      float64            `json:"score_percent"`
	Categories        []CategoryProgress `json:"categories,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// HeadlineVariant is one tested headline with its preference, if resolved.
type HeadlineVariant struct {
	ScoreID    string   `json:"score_id"`
	Text       string   `json:"text"`
	IsOriginal bool     `json:"is_original"`
	Preference *float64 `json:"preference,omitempty"`
}

// TestProgress summarizes a headline test for status polling.
type TestProgress struct {
	TestID             string            `json:"test_id"`
	Status             string            `json:"status"`
	TotalVariants      int               `json:"total_variants"`
	ResolvedVariants   int               `json:"resolved_variants"`
	Variants           []HeadlineVariant `json:"variants,omitempty"`
	WinningHeadline    string            `json:"winning_headline,omitempty"`
	WinningScore       *float64          `json:"winning_score,omitempty"`
	OriginalScore      *float64          `json:"original_score,omitempty"`
	ImprovementPercent *float64          `json:"improvement_percent,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// CampaignCounts aggregates a campaign's dispatch state.
type CampaignCounts struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}
