package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
)

var (
	errMissingAPIKey = errors.New("gemini api key is required")
	errEmptyResponse = errors.New("empty response from model")
)

// Ollama implements extraction.Extractor against a local Ollama vision
// model (llava, qwen2-vl and similar).
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama extractor instance.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			// Local vision models are slow, especially on first load.
			Timeout: 120 * time.Second,
		},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Images   []string        `json:"images,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Extract sends the image and prompt contract to Ollama's chat API and
// parses the reply into a candidate record.
func (o *Ollama) Extract(ctx context.Context, payload extraction.ImagePayload, filename string) (*extraction.ExtractedRecord, error) {
	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: buildUserPrompt(filename, time.Now())},
		},
		Images: []string{payload.Base64()},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &extraction.ExtractionError{
			Stage: "call",
			Err:   fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body)),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &extraction.ExtractionError{Stage: "call", Err: err}
	}

	text := strings.TrimSpace(chatResp.Message.Content)
	if text == "" {
		return nil, &extraction.ExtractionError{Stage: "call", Err: errEmptyResponse}
	}

	rec, err := parseReply(text)
	if err != nil {
		return nil, &extraction.ExtractionError{Stage: "parse", Err: err}
	}

	return rec, nil
}

// Close closes the Ollama client (no-op for HTTP client).
func (o *Ollama) Close() error {
	return nil
}
