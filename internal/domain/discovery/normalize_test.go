package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
)

func TestFilterSuggestions(t *testing.T) {
	in := []SocialProfile{
		{Name: "a", URL: "https://a.example"},
		{Name: "b", URL: "www.b.example"},
		{Name: "c", URL: "http://c.example"},
		{Name: "d", URL: "HTTPS://d.example"},
		{Name: "e", URL: ""},
		{Name: "f", URL: "/relative"},
	}

	once := FilterSuggestions(in)
	require.Equal(t, []string{"a", "c"}, names(once))

	twice := FilterSuggestions(once)
	require.Equal(t, once, twice)

	require.Empty(t, FilterSuggestions(nil))
}

func TestGroundingSources(t *testing.T) {
	require.Empty(t, GroundingSources(nil))
	require.Empty(t, GroundingSources([]gemini.GroundingChunk{{}, {}}))
	require.Equal(t, []GroundingSource{{Title: "t", URI: "https://u"}},
		GroundingSources([]gemini.GroundingChunk{{}, {Web: &gemini.WebSource{Title: "t", URI: "https://u"}}}))
}

func TestClassifyKeepsProviderTextVerbatim(t *testing.T) {
	p := classify(SocialProfile{
		Name:     "&lt;script&gt;alert(1)&lt;/script&gt;",
		Bio:      "Rust <dev> & Go",
		Platform: "Dribbble",
		URL:      "https://www.behance.net/alice",
		Tags:     []string{"", "<b>art</b>"},
	})
	require.Equal(t, PlatformBehance, p.PlatformKind)
	require.Equal(t, "Dribbble", p.Platform)
	require.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", p.Name)
	require.Equal(t, "Rust <dev> & Go", p.Bio)
	require.Equal(t, []string{"", "<b>art</b>"}, p.Tags)
}

func names(in []SocialProfile) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, p.Name)
	}
	return out
}
