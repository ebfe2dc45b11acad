package discovery_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
	apperrors "github.com/yanqian/synergy-circle/pkg/errors"
	"github.com/yanqian/synergy-circle/pkg/metrics"
)

const failureMessage = "Failed to map the social galaxy. The network might be too complex or the source profile is private."

func TestAnalyzeReturnsAllSuggestions(t *testing.T) {
	gen := &stubGenerator{resp: gemini.Response{
		Text: fixtureJSON(t, "Alice", 25, nil),
		GroundingChunks: []gemini.GroundingChunk{
			{Web: &gemini.WebSource{Title: "Alice - GitHub", URI: "https://github.com/alice"}},
		},
		Usage: metrics.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "  https://github.com/alice  "})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 25)
	require.Equal(t, "Alice", result.OriginalProfile.Name)
	require.Equal(t, []discovery.GroundingSource{{Title: "Alice - GitHub", URI: "https://github.com/alice"}}, result.GroundingSources)
	require.NotNil(t, result.TokenUsage)
	require.Equal(t, 30, result.TokenUsage.TotalTokens)
	require.Empty(t, result.ID)

	require.Equal(t, 1, gen.calls)
	require.True(t, gen.last.GoogleSearch)
	require.Equal(t, "application/json", gen.last.ResponseMIMEType)
	require.NotNil(t, gen.last.ResponseSchema)
	require.Equal(t, "gemini-test", gen.last.Model)
	require.Contains(t, gen.last.Prompt, "https://github.com/alice.")
	require.Contains(t, gen.last.Prompt, "exactly 25")
}

func TestAnalyzeDropsSuggestionsWithoutAbsoluteURL(t *testing.T) {
	bad := map[int]string{3: "github.com/no-scheme", 9: "", 17: "ftp://files.example.com/u"}
	gen := &stubGenerator{resp: gemini.Response{Text: fixtureJSON(t, "Alice", 25, bad)}}
	collector := metrics.NewCollector("test")
	svc := discovery.NewService(testConfig(), gen, nil, collector, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 22)
	for _, s := range result.Suggestions {
		require.Regexp(t, `^https?://`, s.URL)
	}
	// relative order survives the filter
	require.Equal(t, "Person 0", result.Suggestions[0].Name)
	require.Equal(t, "Person 4", result.Suggestions[3].Name)
}

func TestAnalyzeProviderOutageUsesGenericMessage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("dial tcp: connection refused")}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	_, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://x.com/alice"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, discovery.CodeProviderFailure))
	require.Equal(t, failureMessage, apperrors.Message(err))
	require.NotContains(t, apperrors.Message(err), "connection refused")
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"prose only":  "Sorry, I could not find anything.",
		"empty":       "   ",
		"broken json": `{"originalProfile": {"name": "Alice"`,
		"array":       `[1, 2, 3]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &stubGenerator{resp: gemini.Response{Text: text}}
			svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

			_, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://x.com/alice"})
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, discovery.CodeMalformedResponse))
			require.Equal(t, failureMessage, apperrors.Message(err))
		})
	}
}

func TestAnalyzeRecoversJSONWrappedInProse(t *testing.T) {
	body := fixtureJSON(t, "Alice", 2, nil)
	gen := &stubGenerator{resp: gemini.Response{Text: "Here is the circle:\n```json\n" + body + "\n```\nEnjoy!"}}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 2)
	require.Equal(t, "Alice", result.OriginalProfile.Name)
}

func TestAnalyzeRejectsBlankURLWithoutCallingProvider(t *testing.T) {
	gen := &stubGenerator{}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	_, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: " \t "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, discovery.CodeInvalidInput))
	require.Zero(t, gen.calls)
}

func TestAnalyzeKeepsOnlyWebGroundingChunks(t *testing.T) {
	gen := &stubGenerator{resp: gemini.Response{
		Text: fixtureJSON(t, "Alice", 1, nil),
		GroundingChunks: []gemini.GroundingChunk{
			{Web: &gemini.WebSource{Title: "A", URI: "https://a.example"}},
			{},
			{Web: &gemini.WebSource{Title: "B", URI: "https://b.example"}},
			{},
			{Web: &gemini.WebSource{Title: "A", URI: "https://a.example"}},
		},
	}}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.Equal(t, []discovery.GroundingSource{
		{Title: "A", URI: "https://a.example"},
		{Title: "B", URI: "https://b.example"},
		{Title: "A", URI: "https://a.example"},
	}, result.GroundingSources)
}

func TestAnalyzeToleratesMissingFieldsAndKeepsTextVerbatim(t *testing.T) {
	text := `{"originalProfile":{"name":"&lt;script&gt;alert(1)&lt;/script&gt;","niche":"Rust <dev> & Go","description":""},
		"suggestions":[{"name":"<b>Bob</b> &amp; Co","platform":"Twitter","url":"https://x.com/bob","relevanceScore":"88","tags":"design"},
		{"name":"Eve","platform":"Mastodon","url":"https://mastodon.social/@eve","tags":[" <i>ux</i> ",""]}]}`
	gen := &stubGenerator{resp: gemini.Response{Text: text}}
	svc := discovery.NewService(testConfig(), gen, nil, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://x.com/alice"})
	require.NoError(t, err)
	require.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", result.OriginalProfile.Name)
	require.Equal(t, "Rust <dev> & Go", result.OriginalProfile.Niche)
	require.Len(t, result.Suggestions, 2)

	bob := result.Suggestions[0]
	require.Equal(t, "<b>Bob</b> &amp; Co", bob.Name)
	require.Equal(t, discovery.PlatformX, bob.PlatformKind)
	require.Equal(t, 88.0, bob.RelevanceScore)
	require.Equal(t, []string{"design"}, bob.Tags)

	eve := result.Suggestions[1]
	require.Equal(t, discovery.PlatformOther, eve.PlatformKind)
	require.Equal(t, []string{" <i>ux</i> ", ""}, eve.Tags)
	require.Empty(t, result.GroundingSources)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	gen := &stubGenerator{resp: gemini.Response{Text: fixtureJSON(t, "Alice", 3, nil)}}
	history := newStubHistory()
	svc := discovery.NewService(testConfig(), gen, history, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)
	require.NotNil(t, result.CreatedAt)

	rec, err := svc.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.Equal(t, "https://github.com/alice", rec.ProfileURL)
	require.Len(t, rec.Result.Suggestions, 3)

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "Alice", recent[0].Name)
	require.Equal(t, 3, recent[0].Suggestions)

	// a second identical query still reaches the provider
	_, err = svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.Equal(t, 2, gen.calls)
}

func TestAnalyzeSurvivesHistoryFailure(t *testing.T) {
	gen := &stubGenerator{resp: gemini.Response{Text: fixtureJSON(t, "Alice", 3, nil)}}
	history := newStubHistory()
	history.saveErr = errors.New("valkey down")
	svc := discovery.NewService(testConfig(), gen, history, nil, newTestLogger())

	result, err := svc.Analyze(context.Background(), discovery.Request{ProfileURL: "https://github.com/alice"})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 3)
	require.Empty(t, result.ID)
}

func TestGetWithoutHistoryIsNotFound(t *testing.T) {
	svc := discovery.NewService(testConfig(), &stubGenerator{}, nil, nil, newTestLogger())

	_, err := svc.Get(context.Background(), "abc")
	require.True(t, apperrors.IsCode(err, discovery.CodeNotFound))

	recent, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	svc := discovery.NewService(testConfig(), &stubGenerator{}, newStubHistory(), nil, newTestLogger())

	_, err := svc.Get(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, discovery.CodeNotFound))
}

func testConfig() discovery.Config {
	return discovery.Config{
		Model:             "gemini-test",
		TargetSuggestions: 25,
		FailureMessage:    failureMessage,
		RecentLimit:       10,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureJSON builds a provider payload with n suggestions; badURLs overrides the url at given indexes.
func fixtureJSON(t *testing.T, name string, n int, badURLs map[int]string) string {
	t.Helper()
	type suggestion struct {
		Name           string   `json:"name"`
		Handle         string   `json:"handle"`
		Platform       string   `json:"platform"`
		Bio            string   `json:"bio"`
		RelevanceScore float64  `json:"relevanceScore"`
		URL            string   `json:"url"`
		Tags           []string `json:"tags"`
	}
	platforms := []string{"LinkedIn", "X (Twitter)", "Instagram", "GitHub", "YouTube"}
	suggestions := make([]suggestion, 0, n)
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://example.com/person-%d", i)
		if bad, ok := badURLs[i]; ok {
			url = bad
		}
		suggestions = append(suggestions, suggestion{
			Name:           fmt.Sprintf("Person %d", i),
			Handle:         fmt.Sprintf("@person%d", i),
			Platform:       platforms[i%len(platforms)],
			Bio:            "Builds things",
			RelevanceScore: float64(90 - i),
			URL:            url,
			Tags:           []string{"go", "design"},
		})
	}
	payload := map[string]any{
		"originalProfile": map[string]string{"name": name, "niche": "Developer tools", "description": "Writes Go"},
		"suggestions":     suggestions,
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

type stubGenerator struct {
	resp  gemini.Response
	err   error
	calls int
	last  gemini.Request
}

func (s *stubGenerator) GenerateContent(_ context.Context, req gemini.Request) (gemini.Response, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return gemini.Response{}, s.err
	}
	return s.resp, nil
}

type stubHistory struct {
	mu      sync.Mutex
	records []discovery.Record
	saveErr error
}

func newStubHistory() *stubHistory {
	return &stubHistory{}
}

func (s *stubHistory) Save(_ context.Context, rec discovery.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubHistory) Get(_ context.Context, id string) (discovery.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return discovery.Record{}, false, nil
}

func (s *stubHistory) Recent(_ context.Context, limit int) ([]discovery.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]discovery.Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}
