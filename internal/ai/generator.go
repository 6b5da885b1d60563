// Package ai proxies generative AI requests for the chat widget and admin tools.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/folio/internal/chat"
	"google.golang.org/genai"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("ai is not configured")

// ErrEmptyResponse is returned when the model produced no usable output.
var ErrEmptyResponse = errors.New("empty model response")

// systemPrompt frames the chat assistant.
const systemPrompt = "You are the assistant on a personal portfolio website. " +
	"Answer briefly and helpfully about the owner's projects, services, pricing, blog and how to get in touch. " +
	"If you do not know something, suggest using the contact form."

// Image is a generated image.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Generator produces chat replies and images.
type Generator interface {
	Chat(ctx context.Context, history []chat.Message) (string, error)
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// GenAIClient implements Generator on the Gemini API.
type GenAIClient struct {
	client     *genai.Client
	chatModel  string
	imageModel string
}

// Ensure GenAIClient implements Generator and chat.Assistant.
var (
	_ Generator      = (*GenAIClient)(nil)
	_ chat.Assistant = (*GenAIClient)(nil)
)

// NewGenAIClient creates a Gemini-backed generator.
func NewGenAIClient(ctx context.Context, apiKey, chatModel, imageModel string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{
		client:     client,
		chatModel:  chatModel,
		imageModel: imageModel,
	}, nil
}

// Chat asks the chat model for the next assistant reply.
func (g *GenAIClient) Chat(ctx context.Context, history []chat.Message) (string, error) {
	contents := toContents(history)
	if len(contents) == 0 {
		return "", fmt.Errorf("chat history has no user message")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI chat failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage renders prompt with the image model.
func (g *GenAIClient) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, nil)
	if err != nil {
		return Image{}, fmt.Errorf("GenAI image generation failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return Image{}, ErrEmptyResponse
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return Image{MIMEType: mime, Data: img.ImageBytes}, nil
}

// toContents maps the widget history onto Gemini turns. Gemini requires the
// conversation to open with a user turn, so leading assistant messages (the
// greeting) are dropped.
func toContents(history []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if len(contents) == 0 && m.Role != chat.RoleUser {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
