// Package ai wraps the OpenAI chat completions API for generating SEO
// improvement recommendations. The output is advisory text; callers fall
// back to heuristic recommendations when the client is not configured or
// the call fails.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Recommendations asks the model for prioritized SEO fixes given the
// heuristic findings. Returns one recommendation per line of the reply.
func (c *Client) Recommendations(ctx context.Context, url string, score int, findings []string) ([]string, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("openai client not configured")
	}

	prompt := fmt.Sprintf(
		"The page %s scored %d/100 in an SEO audit. Findings:\n%s\nList the highest-impact fixes, one per line, no numbering.",
		url, score, strings.Join(findings, "\n"))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an SEO consultant. Be specific and terse."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: status code %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	var recs []string
	for _, line := range strings.Split(parsed.Choices[0].Message.Content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs, nil
}
