package discovery

import (
	"time"

	"github.com/yanqian/synergy-circle/pkg/metrics"
)

// Request captures the payload accepted by the analysis service.
type Request struct {
	ProfileURL string `json:"profileUrl"`
}

// OriginalProfile is the provider's summary of the submitted subject.
type OriginalProfile struct {
	Name        string `json:"name"`
	Niche       string `json:"niche"`
	Description string `json:"description"`
}

// SocialProfile is one suggested member of the Synergy Circle.
// Platform is the provider's free-form label; PlatformKind is its classification.
type SocialProfile struct {
	Name           string   `json:"name"`
	Handle         string   `json:"handle"`
	Platform       string   `json:"platform"`
	PlatformKind   Platform `json:"platformKind"`
	Bio            string   `json:"bio"`
	RelevanceScore float64  `json:"relevanceScore"`
	URL            string   `json:"url"`
	Tags           []string `json:"tags"`
}

// GroundingSource is a web document the provider consulted.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// AnalysisResult is the full output of one query.
type AnalysisResult struct {
	ID               string              `json:"id,omitempty"`
	CreatedAt        *time.Time          `json:"createdAt,omitempty"`
	OriginalProfile  OriginalProfile     `json:"originalProfile"`
	Suggestions      []SocialProfile     `json:"suggestions"`
	GroundingSources []GroundingSource   `json:"groundingSources"`
	TokenUsage       *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Record is a finished analysis as kept by a HistoryStore.
type Record struct {
	ID         string         `json:"id"`
	ProfileURL string         `json:"profileUrl"`
	CreatedAt  time.Time      `json:"createdAt"`
	Result     AnalysisResult `json:"result"`
}

// RecordSummary is the list view of a Record.
type RecordSummary struct {
	ID          string    `json:"id"`
	ProfileURL  string    `json:"profileUrl"`
	Name        string    `json:"name"`
	Niche       string    `json:"niche"`
	Suggestions int       `json:"suggestions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Config wires runtime settings for the discovery domain.
type Config struct {
	Model             string
	Temperature       float32
	TargetSuggestions int
	FailureMessage    string
	RecentLimit       int
}

func (r Record) summary() RecordSummary {
	return RecordSummary{
		ID:          r.ID,
		ProfileURL:  r.ProfileURL,
		Name:        r.Result.OriginalProfile.Name,
		Niche:       r.Result.OriginalProfile.Niche,
		Suggestions: len(r.Result.Suggestions),
		CreatedAt:   r.CreatedAt,
	}
}
