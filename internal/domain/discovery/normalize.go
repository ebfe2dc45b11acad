package discovery

import (
	"strings"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
)

// FilterSuggestions keeps only suggestions whose url starts with "http://" or
// "https://". Order is preserved and applying it twice changes nothing.
func FilterSuggestions(in []SocialProfile) []SocialProfile {
	out := make([]SocialProfile, 0, len(in))
	for _, p := range in {
		if hasAbsoluteURL(p.URL) {
			out = append(out, p)
		}
	}
	return out
}

func hasAbsoluteURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// GroundingSources extracts the web sources from the provider's grounding
// chunks in order. Chunks without web data are skipped and duplicates kept.
func GroundingSources(chunks []gemini.GroundingChunk) []GroundingSource {
	out := make([]GroundingSource, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil {
			continue
		}
		out = append(out, GroundingSource{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}

func toProfiles(wire []suggestionWire) []SocialProfile {
	out := make([]SocialProfile, 0, len(wire))
	for _, w := range wire {
		out = append(out, SocialProfile{
			Name:           w.Name,
			Handle:         w.Handle,
			Platform:       w.Platform,
			Bio:            w.Bio,
			RelevanceScore: float64(w.RelevanceScore),
			URL:            w.URL,
			Tags:           coerceTags(w.Tags),
		})
	}
	return out
}

// classify fills PlatformKind. Provider text is kept verbatim; the web view
// escapes it when rendering.
func classify(p SocialProfile) SocialProfile {
	p.PlatformKind = ClassifyPlatform(p.Platform, p.URL)
	return p
}
