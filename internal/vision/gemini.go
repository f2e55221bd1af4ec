package vision

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
)

// callTimeout bounds the single-shot model call. The enclosing context may
// impose a shorter deadline; an abort surfaces as an ordinary extraction
// error and routes to the pattern fallback.
const callTimeout = 30 * time.Second

// Gemini implements extraction.Extractor using Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini extractor instance.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, &extraction.ExtractionError{Stage: "call", Err: errMissingAPIKey}
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Extract sends the inline image plus filename context to Gemini and parses
// the reply into a candidate record.
func (g *Gemini) Extract(ctx context.Context, payload extraction.ImagePayload, filename string) (*extraction.ExtractedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	// genai.ImageData expects just the format suffix (e.g. "png"), not the
	// full MIME type. The fetcher always delivers PNG.
	format := strings.TrimPrefix(payload.MIMEType, "image/")
	parts := []genai.Part{
		genai.ImageData(format, payload.Data),
		genai.Text(buildUserPrompt(filename, time.Now())),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &extraction.ExtractionError{Stage: "call", Err: errEmptyResponse}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	rec, err := parseReply(responseText.String())
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "parse", Err: err}
	}

	return rec, nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
