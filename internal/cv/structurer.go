package cv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"intake-backend/internal/llm"
	"intake-backend/internal/shared/telemetry"
)

const promptTemplate = `Extract the following information from this CV text and structure it into JSON format:

1. Personal Information (name, email, phone, address, linkedin)
2. Education (institution names, degrees, years)
3. Qualifications (skills, certifications, etc.)
4. Projects (titles, descriptions, technology used)

CV Text:
%s

Response format should be valid JSON with the following structure:
{
  "personal_info": {"name": "", "email": "", "phone": "", "address": "", "linkedin": ""},
  "education": [...],
  "qualifications": [...],
  "projects": [...]
}`

// Structurer turns extracted résumé text into a StructuredCV through a
// generative-AI model.
type Structurer struct {
	LLM llm.Client
}

// BuildPrompt embeds the raw CV text into the fixed instruction.
func BuildPrompt(rawText string) string {
	return fmt.Sprintf(promptTemplate, rawText)
}

// Structure asks the model for the four sections. Only transport
// failures from the model propagate as errors; malformed output
// degrades to the fallback structure so downstream stages always get a
// well-shaped record.
func (s *Structurer) Structure(ctx context.Context, rawText string) (StructuredCV, error) {
	resp, err := s.LLM.Complete(ctx, BuildPrompt(rawText))
	if err != nil {
		return StructuredCV{}, fmt.Errorf("structure cv: %w", err)
	}
	return ParseResponse(resp), nil
}

// ParseResponse parses the model reply: find the first balanced JSON
// object in the free text and decode it, falling back to the default
// structure on any parse or shape failure.
func ParseResponse(resp string) StructuredCV {
	span, ok := FirstJSONObject(resp)
	if !ok {
		telemetry.Warn("cv.parse.no_json_object", map[string]any{
			"response_len": len(resp),
		})
		return Fallback()
	}

	var structured StructuredCV
	dec := json.NewDecoder(strings.NewReader(span))
	if err := dec.Decode(&structured); err != nil {
		telemetry.Warn("cv.parse.decode_failed", map[string]any{
			"error":    err.Error(),
			"span_len": len(span),
		})
		return Fallback()
	}

	return normalize(structured)
}
