// Package service turns an agent and its conversation into completion
// requests and post-processes what comes back.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"personachat/internal/completion"
	"personachat/internal/models"
)

var ErrOrchestration = errors.New("failed to generate response from AI service")

// Completer is the part of completion.Client the service depends on.
type Completer interface {
	GenerateResponse(ctx context.Context, systemPrompt string, turns []completion.Turn, cfg models.ModelConfig) (string, error)
	GenerateImageResponse(ctx context.Context, systemPrompt string, turns []completion.Turn, imageURL string, cfg models.ModelConfig) (string, error)
}

type Service struct {
	client    Completer
	moderator *Moderator
	logger    *zap.Logger
}

func New(client Completer, moderator *Moderator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if moderator == nil {
		moderator = NewModerator(true, nil, logger)
	}
	return &Service{client: client, moderator: moderator, logger: logger}
}

// Chat sends content to agent on top of history, which must not already
// contain content. Only the first image of content is forwarded.
func (s *Service) Chat(ctx context.Context, agent models.Agent, content models.Content, history []models.Message) (string, error) {
	system := SystemPrompt(agent)
	turns := historyTurns(history)

	s.logger.Debug("chat request",
		zap.String("agent", agent.ID),
		zap.String("model", agent.ModelConfig.Model),
		zap.Int("history", len(history)),
		zap.Bool("image", content.HasImage()))

	var (
		reply string
		err   error
	)
	if url, ok := content.FirstImageURL(); ok {
		if n := content.ImageCount(); n > 1 {
			s.logger.Warn("dropping extra images", zap.Int("images", n))
		}
		msg := models.MultiPart(models.TextPart(content.Text()), models.ImagePart(url))
		turns = append(turns, completion.UserTurn(msg))
		reply, err = s.client.GenerateImageResponse(ctx, system, turns, url, agent.ModelConfig)
	} else {
		turns = append(turns, completion.UserTurn(models.PlainText(content.Text())))
		reply, err = s.client.GenerateResponse(ctx, system, turns, agent.ModelConfig)
	}
	if err != nil {
		s.logger.Error("chat failed", zap.String("agent", agent.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrOrchestration, err)
	}
	return reply, nil
}

func (s *Service) ModerateContent(content models.Content) bool {
	return s.moderator.Moderate(content)
}

func (s *Service) SetModerationEnabled(enabled bool) { s.moderator.SetEnabled(enabled) }

func (s *Service) ModerationEnabled() bool { return s.moderator.Enabled() }

// historyTurns flattens earlier turns to text so that an outgoing request
// never carries more than the one new image.
func historyTurns(history []models.Message) []completion.Turn {
	turns := make([]completion.Turn, 0, len(history)+1)
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			turns = append(turns, completion.UserTurn(models.PlainText(m.Content.Text())))
		case models.RoleAssistant:
			turns = append(turns, completion.AssistantTurn(m.Content.Text()))
		}
	}
	return turns
}
