package discovery

import (
	"fmt"
	"strings"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
)

func buildPrompt(profileURL string, target int) string {
	var platforms strings.Builder
	for i, name := range searchPlatforms {
		if i > 0 {
			platforms.WriteString(", ")
		}
		fmt.Fprintf(&platforms, "%d. %s", i+1, name)
	}

	return fmt.Sprintf(`Analyze this social media profile URL: %[1]s.

Step 1: Deeply analyze the subject's identity, professional niche, and creative style.

Step 2: Define a "Synergy Circle" which includes:
- Similar Peers: people doing exactly what they do (for networking).
- Complementary Partners: people whose services or skillsets balance the subject (e.g. a coder gets designers, a chef gets food photographers).

Step 3: Use Google Search to find exactly %[2]d REAL, ACTIVE social media profiles.
Source them from across these %[3]d platforms: %[4]s.

URL VERIFICATION RULES:
- Provide %[2]d unique suggestions.
- Every URL must be a direct, absolute link to a profile, verified via search grounding.
- Do not invent URLs. If a profile's direct URL cannot be verified, pick a different person.
- Keep a healthy mix across all %[3]d platforms.

Return a JSON object with:
1. originalProfile: { name: string, niche: string, description: string }
2. suggestions: array of %[2]d { name: string, handle: string, platform: string, bio: string, relevanceScore: number (0-100), url: string, tags: string[] }`,
		profileURL, target, len(searchPlatforms), platforms.String())
}

func analysisSchema() *gemini.Schema {
	str := func() *gemini.Schema { return &gemini.Schema{Type: gemini.TypeString} }
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"originalProfile": {
				Type: gemini.TypeObject,
				Properties: map[string]*gemini.Schema{
					"name":        str(),
					"niche":       str(),
					"description": str(),
				},
				Required: []string{"name", "niche", "description"},
			},
			"suggestions": {
				Type: gemini.TypeArray,
				Items: &gemini.Schema{
					Type: gemini.TypeObject,
					Properties: map[string]*gemini.Schema{
						"name":           str(),
						"handle":         str(),
						"platform":       str(),
						"bio":            str(),
						"relevanceScore": {Type: gemini.TypeNumber},
						"url":            str(),
						"tags":           {Type: gemini.TypeArray, Items: str()},
					},
					Required: []string{"name", "handle", "platform", "bio", "relevanceScore", "url", "tags"},
				},
			},
		},
		Required: []string{"originalProfile", "suggestions"},
	}
}
