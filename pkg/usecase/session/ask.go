package session

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/recollect-dev/recollect/pkg/usecase/memory"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

// Answer is a generated response together with the memories it was
// grounded on.
type Answer struct {
	Text    string
	Sources []memory.Result
}

// Ask retrieves the user's k most relevant memories and answers the
// question from them. The model is told to admit ignorance when the
// memories don't cover the question.
func (u *UseCase) Ask(ctx context.Context, userID, question string, k int) (*Answer, error) {
	sources, err := u.memories.Retrieve(ctx, userID, question, k)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(sources))
	for i, s := range sources {
		contents[i] = s.Content
	}

	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"Memories": contents,
		"Question": question,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to build answer prompt")
	}

	resp, err := u.gemini.GenerateContent(ctx, []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}, &genai.GenerateContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("invalid response structure from gemini")
	}

	return &Answer{
		Text:    resp.Candidates[0].Content.Parts[0].Text,
		Sources: sources,
	}, nil
}
