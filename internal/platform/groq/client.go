package groq

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
)

var (
	// ErrBudgetExhausted means the call was refused locally before any
	// network traffic; callers should fall back, not retry.
	ErrBudgetExhausted = errors.New("groq: rate budget exhausted")

	// ErrShortCompletion means the model returned a degenerate answer
	// (empty or nearly so) that is not worth showing a user.
	ErrShortCompletion = errors.New("groq: completion too short")
)

// A completion shorter than this is treated as a failed call.
const minCompletionLength = 10

const defaultModel = "llama3-8b-8192"

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	budget     *Budget
}

func NewClient(apiKey string, budget *Budget) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: "https://api.groq.com/openai/v1",
		model:   defaultModel,
		budget:  budget,
	}
}

// Generate sends a single-turn chat completion and returns the trimmed text.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	estimatedTokens := len(strings.Fields(prompt)) + maxTokens
	if !c.budget.Allow(estimatedTokens) {
		return "", ErrBudgetExhausted
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": 0.7,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if len(text) <= minCompletionLength {
		return "", ErrShortCompletion
	}
	return text, nil
}
