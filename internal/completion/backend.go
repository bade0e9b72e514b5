// Package completion turns a system prompt plus prior turns into an assistant
// reply. The Client hides transport failures behind a degradation ladder:
// real backend, then the fallback model, then the local mock backend.
package completion

import (
	"context"
	"errors"

	"personachat/internal/models"
)

const (
	DefaultBaseURL       = "https://api.sambanova.ai/v1"
	DefaultFallbackModel = "Llama-4-Maverick-17B-128E-Instruct"
	DefaultTemperature   = 0.1
	DefaultMaxTokens     = 1024
	DefaultTopP          = 0.1
)

var (
	ErrNoChoices     = errors.New("empty response from model")
	ErrModelNotFound = errors.New("model not found")
)

// Turn is one entry of the messages array sent to a backend.
type Turn struct {
	Role    models.Role
	Content models.Content
}

func SystemTurn(text string) Turn {
	return Turn{Role: models.RoleSystem, Content: models.PlainText(text)}
}

func UserTurn(c models.Content) Turn { return Turn{Role: models.RoleUser, Content: c} }

func AssistantTurn(text string) Turn {
	return Turn{Role: models.RoleAssistant, Content: models.PlainText(text)}
}

type Request struct {
	Model       string
	Messages    []Turn
	Temperature float64
	MaxTokens   int
	TopP        float64
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	ID      string
	Model   string
	Content string
	Usage   Usage
}

// Backend is anything that speaks the chat-completions request shape.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request) (*Response, error)

func (f BackendFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// systemText returns the first system turn's text.
func systemText(turns []Turn) string {
	for _, t := range turns {
		if t.Role == models.RoleSystem {
			return t.Content.Text()
		}
	}
	return ""
}

// lastUser returns the most recent user turn.
func lastUser(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			return turns[i], true
		}
	}
	return Turn{}, false
}
