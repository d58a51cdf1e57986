package scanning

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel     = openai.GPT4o
	DefaultOpenAIMaxTokens = 300
)

// OpenAIConfig configures the OpenAI vision client
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout bounds a single request; zero means no limit
	Timeout time.Duration
}

// OpenAI implements the Vision interface using the OpenAI chat completions API
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAI creates a new OpenAI Vision instance.
// An empty API key is allowed; requests then fail and the caller falls back to OCR.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultOpenAIMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
}

// ExtractInvoice sends the image and the instruction prompt and parses the reply
func (o *OpenAI) ExtractInvoice(ctx context.Context, imagePath string) (*InvoiceData, error) {
	imageURL, err := EncodeImageURL(imagePath)
	if err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
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
						Text: invoicePrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, extractionErr("calling openai API", err)
	}

	if len(resp.Choices) == 0 {
		return nil, extractionErr("reading openai response", fmt.Errorf("no choices in response"))
	}

	data, err := parseInvoiceJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, extractionErr("parsing invoice data", err)
	}

	return data, nil
}

// Close is a no-op for the HTTP client
func (o *OpenAI) Close() error {
	return nil
}
