package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmptyResponse = errors.New("provider returned an empty response")
	errNoJSONObject  = errors.New("could not parse provider response as JSON")
)

type analysisWire struct {
	OriginalProfile OriginalProfile  `json:"originalProfile"`
	Suggestions     []suggestionWire `json:"suggestions"`
}

type suggestionWire struct {
	Name           string          `json:"name"`
	Handle         string          `json:"handle"`
	Platform       string          `json:"platform"`
	Bio            string          `json:"bio"`
	RelevanceScore flexibleNumber  `json:"relevanceScore"`
	URL            string          `json:"url"`
	Tags           json.RawMessage `json:"tags"`
}

// decodeAnalysis parses the provider text. When the text is not a bare JSON
// object it falls back to the span between the first '{' and the last '}'.
func decodeAnalysis(text string) (analysisWire, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return analysisWire{}, errEmptyResponse
	}

	var wire analysisWire
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &wire); err == nil {
			return wire, nil
		}
	}

	candidate, ok := extractJSONObject(trimmed)
	if !ok {
		return analysisWire{}, errNoJSONObject
	}
	wire = analysisWire{}
	if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
		return analysisWire{}, fmt.Errorf("%w: %v", errNoJSONObject, err)
	}
	return wire, nil
}

func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// flexibleNumber accepts 87, 87.5 and "87".
type flexibleNumber float64

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexibleNumber(v)
	return nil
}

// coerceTags accepts an array of strings or a single string. Anything else yields no tags.
func coerceTags(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	switch raw[0] {
	case '"':
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		if strings.TrimSpace(single) == "" {
			return nil
		}
		return []string{single}
	case '[':
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil
		}
		return many
	default:
		return nil
	}
}
