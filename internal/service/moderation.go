package service

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"personachat/internal/models"
)

var DefaultDenyList = []string{"explicit", "nsfw", "adult content", "pornography", "obscene"}

// Classifier reports whether text should be blocked.
type Classifier func(text string) (flagged bool, err error)

// DenyList flags text containing any of terms, ignoring case.
func DenyList(terms []string) Classifier {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return func(text string) (bool, error) {
		low := strings.ToLower(text)
		for _, t := range lowered {
			if t != "" && strings.Contains(low, t) {
				return true, nil
			}
		}
		return false, nil
	}
}

// Moderator gates outgoing user content. It fails open: a classifier error
// or panic lets the content through.
type Moderator struct {
	enabled  atomic.Bool
	classify Classifier
	logger   *zap.Logger
}

func NewModerator(enabled bool, classify Classifier, logger *zap.Logger) *Moderator {
	if classify == nil {
		classify = DenyList(DefaultDenyList)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Moderator{classify: classify, logger: logger}
	m.enabled.Store(enabled)
	return m
}

func (m *Moderator) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

func (m *Moderator) Enabled() bool { return m.enabled.Load() }

// Moderate reports whether content is appropriate. Image parts are not inspected.
func (m *Moderator) Moderate(content models.Content) bool {
	return m.ModerateText(content.Text())
}

func (m *Moderator) ModerateText(text string) (ok bool) {
	if !m.Enabled() {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("moderation panicked, allowing content", zap.Error(fmt.Errorf("%v", r)))
			ok = true
		}
	}()

	flagged, err := m.classify(text)
	if err != nil {
		m.logger.Error("moderation failed, allowing content", zap.Error(err))
		return true
	}
	if flagged {
		m.logger.Info("content flagged by moderation")
	}
	return !flagged
}
