package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPLLMClient is an HTTP implementation of the LLMClient interface,
// talking to the model-gateway sidecar.
type HTTPLLMClient struct {
	url    string
	model  string
	client *http.Client
}

// NewHTTPLLMClient creates a new HTTPLLMClient.
func NewHTTPLLMClient(url, model string) *HTTPLLMClient {
	return &HTTPLLMClient{url: url, model: model, client: http.DefaultClient}
}

var _ LLMClient = (*HTTPLLMClient)(nil)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate sends the prompt to the gateway and returns the raw completion.
func (c *HTTPLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to generate: status code %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return gr.Text, nil
}
