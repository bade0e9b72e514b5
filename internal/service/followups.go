package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"personachat/internal/models"
)

const (
	maxFollowUps      = 3
	maxFollowUpRunes  = 100
	followUpKeepRunes = 97
	ellipsis          = "…"
)

var (
	numberedQuestion = regexp.MustCompile(`^\s*\d+\.\s*(.*\?)\s*$`)
	// Terminal punctuation only ends a sentence when whitespace or the end
	// of the reply follows, so "2.5" stays whole.
	sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)
)

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// GenerateFollowUpSuggestions never fails. Any error yields an empty list.
func (s *Service) GenerateFollowUpSuggestions(ctx context.Context, agent models.Agent, history []models.Message) []string {
	cfg := agent.ModelConfig
	cfg.Temperature = models.Float(followUpTemperature)

	reply, err := s.client.GenerateResponse(ctx, followUpPrompt, historyTurns(history), cfg)
	if err != nil {
		s.logger.Warn("follow-up generation failed", zap.String("agent", agent.ID), zap.Error(err))
		return []string{}
	}
	return ParseFollowUpQuestions(reply)
}

// ParseFollowUpQuestions extracts at most three questions from reply. It
// tries numbered question lines, then any line ending in "?", then every
// question sentence, and uses the first tier that finds anything.
func ParseFollowUpQuestions(reply string) []string {
	lines := strings.Split(reply, "\n")

	var out []string
	for _, line := range lines {
		if m := numberedQuestion.FindStringSubmatch(line); m != nil {
			if q := strings.TrimSpace(m[1]); q != "" {
				out = append(out, q)
			}
		}
	}

	if len(out) == 0 {
		for _, line := range lines {
			if l := strings.TrimSpace(line); strings.HasSuffix(l, "?") {
				out = append(out, l)
			}
		}
	}

	if len(out) == 0 {
		for _, sent := range splitSentences(reply) {
			if s := strings.TrimSpace(sent); strings.HasSuffix(s, "?") {
				out = append(out, s)
			}
		}
	}

	if len(out) > maxFollowUps {
		out = out[:maxFollowUps]
	}
	for i, q := range out {
		out[i] = truncate(q)
	}
	if out == nil {
		return []string{}
	}
	return out
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxFollowUpRunes {
		return s
	}
	return string(r[:followUpKeepRunes]) + ellipsis
}
