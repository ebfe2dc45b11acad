package gemini

import (
	"google.golang.org/genai"

	"github.com/yanqian/synergy-circle/pkg/metrics"
)

// Schema type names accepted by the Gemini structured output feature.
const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
	TypeNumber = "NUMBER"
)

// Request is the payload sent to Gemini's generateContent endpoint.
type Request struct {
	Model            string
	Prompt           string
	Temperature      float32
	GoogleSearch     bool
	ResponseMIMEType string
	ResponseSchema   *Schema
}

// Schema mirrors the subset of the OpenAPI schema Gemini accepts for structured output.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Response carries the generated text plus out-of-band grounding metadata.
type Response struct {
	Text            string
	Model           string
	GroundingChunks []GroundingChunk
	Usage           metrics.TokenUsage
}

// GroundingChunk is one piece of evidence the model consulted. Web is nil for
// chunks that do not reference a web document.
type GroundingChunk struct {
	Web *WebSource
}

// WebSource identifies a web document used for grounding.
type WebSource struct {
	Title string
	URI   string
}

func (s *Schema) toGenAI() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Items:       s.Items.toGenAI(),
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenAI()
		}
	}
	return out
}
