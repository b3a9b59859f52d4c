package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ROLLCALL-backend/internal/platform/config"
)

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, cfg config.InterpreterConfig) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := cfg.Model
	// "vendor/model" は OpenRouter 形式なので既定モデルに置き換える
	if model == "" || strings.Contains(model, "/") {
		model = "gemini-2.0-flash"
	}
	return &geminiClient{client: client, model: model}, nil
}

func (g *geminiClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}
