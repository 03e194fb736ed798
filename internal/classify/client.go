// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// Backend classifies a single record and returns the service's raw reply
// text. Each implementation wraps one text-generation service per the
// Strategy pattern (prd002-classification R5.2); parsing the reply is the
// pipeline's job, so a Backend never returns a partially-parsed result.
type Backend interface {
	Name() string
	Classify(ctx context.Context, title, abstract string) (string, error)
}

// DefaultPrompt instructs the service to answer in "Label: Value" lines
// for the reference taxonomy. Deployments override it with --prompt-file.
const DefaultPrompt = `You are a helpful assistant. You are going to evaluate and classify the titles and abstracts of scientific papers.

Based only on the title and abstract, decide whether the paper is related to Neural Audio Synthesis, then classify it. Reply with exactly these lines and nothing else:

NAS: yes or no
Sound Type: music, speech, audio, sound effect, or unknown
Architecture: the model architecture used (e.g. VAE, GAN, Diffusion, Transformer, WaveNet), or unknown

If there is not enough information, answer "unknown". It is better to say "unknown" than to make a mistake.`

// LoadPrompt reads the classification prompt from a file. A configured but
// unreadable prompt source is fatal before any record is processed (R5.1).
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return prompt, nil
}

// chatAPIBase is the chat-completions endpoint. Declared as a var so tests
// can substitute an httptest server.
var chatAPIBase = "https://api.openai.com/v1/chat/completions"

// ChatBackend calls an OpenAI-compatible chat-completions API with a fixed
// prompt and deterministic sampling. Per prd002-classification R5.2.
type ChatBackend struct {
	APIKey string
	Model  string
	Prompt string
	Client *http.Client
	Retry  types.RetryConfig
}

// Name returns the backend identifier.
func (b *ChatBackend) Name() string { return "chat" }

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify sends one record to the service: a single user message built
// from the prompt and the record fields, temperature 0. Transient
// failures are retried by the policy; a permanent rejection or exhausted
// retries surface as an error so the caller skips the record (R5.3, R5.4).
func (b *ChatBackend) Classify(ctx context.Context, title, abstract string) (string, error) {
	message := fmt.Sprintf("%s\n\ntitle: %s\nabstract: %s\n", b.Prompt, title, abstract)

	reqBody := chatRequest{
		Model:       b.Model,
		Messages:    []chatMessage{{Role: "user", Content: message}},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatAPIBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	policy := httputil.Policy{
		MaxRetries: b.Retry.MaxRetries,
		BaseDelay:  b.Retry.BaseDelay,
		Jitter:     0.2,
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, policy)
	if err != nil {
		return "", fmt.Errorf("calling classification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("classification service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding service response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("classification service returned no choices")
	}
	return cResp.Choices[0].Message.Content, nil
}
