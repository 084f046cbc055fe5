package extract

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/recollect-dev/recollect/pkg/adapter"
	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

//go:embed prompt/facts.md
var factsPromptRaw string

//go:embed prompt/deletion.md
var deletionPromptRaw string

var (
	factsPromptTmpl    = template.Must(template.New("facts").Parse(factsPromptRaw))
	deletionPromptTmpl = template.Must(template.New("deletion").Parse(deletionPromptRaw))
)

// factListSchema validates the model output before we trust it.
var factListSchema = func() *jsonschema.Resolved {
	schema := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}()

// Extractor turns free-form messages into discrete fact statements
// using the generative model.
type Extractor struct {
	gemini adapter.Gemini
}

func New(gemini adapter.Gemini) *Extractor {
	return &Extractor{gemini: gemini}
}

// Facts extracts storable facts from a message. Extraction is best
// effort: if the model call fails or returns garbage, the whole
// message is stored as a single fact rather than losing it.
func (x *Extractor) Facts(ctx context.Context, message string) []string {
	return x.extract(ctx, factsPromptTmpl, message)
}

// DeletionTargets extracts the facts a message asks to forget. Falls
// back to the whole message like Facts does.
func (x *Extractor) DeletionTargets(ctx context.Context, message string) []string {
	return x.extract(ctx, deletionPromptTmpl, message)
}

func (x *Extractor) extract(ctx context.Context, tmpl *template.Template, message string) []string {
	fallback := []string{strings.TrimSpace(message)}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{"Message": message}); err != nil {
		logging.From(ctx).Warn("failed to build extraction prompt, storing message as-is", "error", err)
		return fallback
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A single self-contained fact",
			},
		},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := x.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logging.From(ctx).Warn("fact extraction failed, storing message as-is", "error", err)
		return fallback
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		logging.From(ctx).Warn("empty extraction response, storing message as-is")
		return fallback
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text

	var parsed any
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		logging.From(ctx).Warn("extraction response is not JSON, storing message as-is", "error", err)
		return fallback
	}
	if err := factListSchema.Validate(parsed); err != nil {
		logging.From(ctx).Warn("extraction response violates schema, storing message as-is", "error", err)
		return fallback
	}

	var raw []string
	if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
		return fallback
	}

	facts := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f != "" {
			facts = append(facts, f)
		}
	}
	return facts
}
