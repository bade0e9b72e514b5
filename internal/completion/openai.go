package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"personachat/internal/models"
)

// OpenAIBackend calls any OpenAI-compatible chat-completions endpoint.
type OpenAIBackend struct {
	client openai.Client
}

func NewOpenAIBackend(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIBackend {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		// The Client owns the retry policy.
		option.WithMaxRetries(0),
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAIBackend{client: openai.NewClient(reqOpts...)}
}

func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func toOpenAIMessages(turns []Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(t.Content.Text()))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Content.Text()))
		default:
			if !t.Content.IsMultiPart() {
				out = append(out, openai.UserMessage(t.Content.Text()))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(t.Content.Parts()))
			for _, p := range t.Content.Parts() {
				switch p.Type {
				case models.PartImage:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: p.URL,
					}))
				default:
					parts = append(parts, openai.TextContentPart(p.Text))
				}
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}

// classifyError tags model-not-found failures with ErrModelNotFound.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound || mentionsMissingModel(apiErr.Error()) {
			return fmt.Errorf("%w: %w", ErrModelNotFound, err)
		}
		return err
	}
	if mentionsMissingModel(err.Error()) {
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	}
	return err
}

// missingModel matches provider wording for an unknown model id. Generic
// request-validation failures that merely mention a model do not match.
var missingModel = regexp.MustCompile(`(?i)\bmodel\b.*\b(not found|does not exist)|\b(unknown|no such) model\b|model_not_found`)

func mentionsMissingModel(msg string) bool {
	return missingModel.MatchString(msg)
}

// IsModelNotFound reports whether err should trigger the fallback-model retry.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
