package services

import "context"

// LLMClient is an interface for communicating with the generative-model
// gateway. The pipeline treats the response as untrusted unstructured text.
type LLMClient interface {
	// Generate returns the model's raw text completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
