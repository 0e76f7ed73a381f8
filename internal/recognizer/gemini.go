package recognizer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

const geminiOCRPrompt = `You are an OCR engine for identity documents.
Read every visible text span in the image and return ONLY valid JSON:
{"fragments":[{"text":"...","confidence":0.0}]}
One entry per text line, in reading order (top to bottom, left to right).
Confidence is your certainty in [0,1] that the text is read correctly.
Do not translate, interpret or omit anything.`

// GeminiProvider performs text recognition through the Gemini API. Like the
// OpenAI backend it cannot compute face embeddings.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider using the given API key.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns the backing model name.
func (p *GeminiProvider) Name() string {
	return geminiModel
}

// DetectAndEmbed is not supported by the Gemini backend.
func (p *GeminiProvider) DetectAndEmbed(ctx context.Context, imageData []byte) ([]float32, error) {
	return nil, errors.New("gemini provider does not compute face embeddings")
}

// RecognizeText runs OCR through the Gemini API. Returned fragments carry
// zero bounding boxes; reading order is preserved from the model output.
func (p *GeminiProvider) RecognizeText(ctx context.Context, imageData []byte) ([]Fragment, error) {
	resized, err := ResizeImage(imageData, 1200)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: geminiOCRPrompt},
				{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	content := result.Text()
	if content == "" {
		return nil, errors.New("no response from Gemini")
	}

	return parseLLMFragments(content)
}
