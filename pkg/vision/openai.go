package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"

	"github.com/sashabaranov/go-openai"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// Config configures the OpenAI-compatible oracle client.
type Config struct {
	// APIKey authenticates against the endpoint. Required.
	APIKey string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string

	// Model is the vision-capable model name. Defaults to gpt-4o-mini.
	Model string

	// MaxTokens bounds the reply length. Defaults to 1024.
	MaxTokens int
}

// OpenAIOracle implements Oracle against an OpenAI-compatible chat API,
// sending the screenshot inline as a base64 data URL.
type OpenAIOracle struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIOracle creates the oracle client.
func NewOpenAIOracle(cfg Config) (*OpenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeOracle, "vision API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIOracle{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Describe sends the image and prompt to the model and returns its raw reply.
func (o *OpenAIOracle) Describe(ctx context.Context, img *raster.Image, prompt string) (string, error) {
	if img == nil {
		return "", errors.New(errors.ErrCodeInvalidImage, "no image to describe")
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	dataURL, err := encodeDataURL(img)
	if err != nil {
		return "", err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOracle, err, "vision model request failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeOracle, "vision model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// encodeDataURL encodes the image as a PNG base64 data URL.
func encodeDataURL(img *raster.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Std()); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode image for vision request")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Ensure OpenAIOracle implements Oracle.
var _ Oracle = (*OpenAIOracle)(nil)
