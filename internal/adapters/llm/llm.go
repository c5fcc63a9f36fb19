// Package llm generates alternative headlines through a messages-style
// completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prsim/prsim/pkg/logger"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Client calls a messages-style LLM API and parses headline lists out of
// the completion text.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	log        logger.Logger
}

// New builds a Client for the given endpoint.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// GenerateHeadlines asks the model for n alternative headlines and returns
// them in slot order.
func (c *Client) GenerateHeadlines(ctx context.Context, original, contextURL string, n int) ([]string, error) {
	prompt := headlinePrompt(original, contextURL, n)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	headlines, err := ParseNumberedList(text, n)
	if err != nil {
		c.log.Warn(ctx, "completion did not parse", logger.Error(err))
		return nil, err
	}
	return headlines, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call llm api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm api returned %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	for _, block := range decoded.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyCompletion
}

func headlinePrompt(original, contextURL string, n int) string {
	prompt := fmt.Sprintf(`You are an experienced news editor. Rewrite the following headline %d times, once for each of these editorial angles in this order: hard news, human interest, conflict or controversy, local angle, broader trend.

Original headline: %s
`, n, original)
	if contextURL != "" {
		prompt += fmt.Sprintf("Story context: %s\n", contextURL)
	}
	prompt += fmt.Sprintf("\nReply with exactly %d lines, numbered 1. through %d., one headline per line and nothing else.", n, n)
	return prompt
}
