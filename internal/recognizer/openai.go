package recognizer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const openaiChatModel = openai.ChatModelGPT4_1Mini

const openaiOCRPrompt = `You are an OCR engine for identity documents.
Read every visible text span in the image and return ONLY valid JSON:
{"fragments":[{"text":"...","confidence":0.0}]}
One entry per text line, in reading order (top to bottom, left to right).
Confidence is your certainty in [0,1] that the text is read correctly.
Do not translate, interpret or omit anything.`

// OpenAIProvider performs text recognition through the OpenAI vision API.
// It cannot compute face embeddings; deployments using it still need the
// sidecar for the face path.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider using the given API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client}
}

// Name returns the backing model name.
func (p *OpenAIProvider) Name() string {
	return openaiChatModel
}

// DetectAndEmbed is not supported by the OpenAI backend.
func (p *OpenAIProvider) DetectAndEmbed(ctx context.Context, imageData []byte) ([]float32, error) {
	return nil, errors.New("openai provider does not compute face embeddings")
}

type llmFragments struct {
	Fragments []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"fragments"`
}

// RecognizeText runs OCR through the vision chat API. Returned fragments
// carry zero bounding boxes; reading order is preserved from the model
// output.
func (p *OpenAIProvider) RecognizeText(ctx context.Context, imageData []byte) ([]Fragment, error) {
	resized, err := ResizeImage(imageData, 1200)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resized)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openaiChatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(openaiOCRPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart("Read all text in this document."),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "high",
							}),
						},
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(2000),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return parseLLMFragments(resp.Choices[0].Message.Content)
}

func parseLLMFragments(content string) ([]Fragment, error) {
	var parsed llmFragments
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OCR JSON: %w (response: %s)", err, content)
	}

	fragments := make([]Fragment, 0, len(parsed.Fragments))
	for _, pf := range parsed.Fragments {
		text := strings.TrimSpace(pf.Text)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{Text: text, Confidence: pf.Confidence})
	}
	if len(fragments) == 0 {
		return nil, ErrNoText
	}
	return fragments, nil
}
