package discovery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAnalysisFallsBackToEmbeddedObject(t *testing.T) {
	embedded := `{"originalProfile":{"name":"Alice","niche":"Go","description":"d"},"suggestions":[{"name":"Bob","url":"https://x.com/bob","tags":["a"]}]}`
	wire, err := decodeAnalysis("Sure! Here you go:\n" + embedded + "\nLet me know.")
	require.NoError(t, err)

	direct, err := decodeAnalysis(embedded)
	require.NoError(t, err)
	require.Equal(t, direct, wire)
	require.Equal(t, "Alice", wire.OriginalProfile.Name)
	require.Len(t, wire.Suggestions, 1)
}

func TestDecodeAnalysisFailures(t *testing.T) {
	for _, text := range []string{"", "no braces at all", "} backwards {", "null", `{"suggestions": [}`} {
		_, err := decodeAnalysis(text)
		require.Error(t, err, text)
	}
}

func TestExtractJSONObjectIsGreedy(t *testing.T) {
	got, ok := extractJSONObject(`a {"x":1} b {"y":2} c`)
	require.True(t, ok)
	require.Equal(t, `{"x":1} b {"y":2}`, got)
}

func TestFlexibleNumber(t *testing.T) {
	cases := map[string]float64{
		`87`:     87,
		`87.5`:   87.5,
		`"92"`:   92,
		`"75%"`:  75,
		`null`:   0,
		`"high"`: 0,
	}
	for raw, want := range cases {
		var n flexibleNumber
		require.NoError(t, json.Unmarshal([]byte(raw), &n), raw)
		require.Equal(t, want, float64(n), raw)
	}
}

func TestCoerceTags(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, coerceTags(json.RawMessage(`["a","b"]`)))
	require.Equal(t, []string{"solo"}, coerceTags(json.RawMessage(`"solo"`)))
	require.Nil(t, coerceTags(json.RawMessage(`""`)))
	require.Nil(t, coerceTags(json.RawMessage(`42`)))
	require.Nil(t, coerceTags(json.RawMessage(`null`)))
	require.Nil(t, coerceTags(nil))
}
