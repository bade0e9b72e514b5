package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"personachat/internal/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestModerateContent(t *testing.T) {
	s := New(&fakeCompleter{}, NewModerator(true, nil, nil), nil)

	assert.False(t, s.ModerateContent(models.PlainText("this is adult content")))
	assert.True(t, s.ModerateContent(models.PlainText("hello world")))
	assert.False(t, s.ModerateContent(models.PlainText("Some NSFW stuff")), "matching ignores case")

	t.Run("parts are checked, images are not", func(t *testing.T) {
		flagged := models.MultiPart(models.TextPart("look"), models.TextPart("explicit"), models.ImagePart("data:image/png;base64,AAAA"))
		assert.False(t, s.ModerateContent(flagged))

		imageOnly := models.MultiPart(models.ImagePart("data:image/png;base64,nsfw"))
		assert.True(t, s.ModerateContent(imageOnly))
	})

	t.Run("disabled allows everything", func(t *testing.T) {
		s.SetModerationEnabled(false)
		defer s.SetModerationEnabled(true)
		assert.False(t, s.ModerationEnabled())
		assert.True(t, s.ModerateContent(models.PlainText("this is adult content")))
		assert.True(t, s.ModerateContent(models.PlainText("pornography")))
	})
}

// Moderation fails open. These tests pin that weakness: a broken
// classifier lets flagged content through.
func TestModerationFailsOpen(t *testing.T) {
	t.Run("classifier error", func(t *testing.T) {
		m := NewModerator(true, func(string) (bool, error) { return true, errors.New("classifier offline") }, nil)
		assert.True(t, m.ModerateText("explicit"))
	})

	t.Run("classifier panic", func(t *testing.T) {
		m := NewModerator(true, func(string) (bool, error) { panic("boom") }, nil)
		assert.True(t, m.ModerateText("explicit"))
	})
}

func TestDenyList(t *testing.T) {
	c := DenyList([]string{"Bad Word", ""})
	flagged, err := c("a BAD WORD here")
	assert.NoError(t, err)
	assert.True(t, flagged)

	flagged, _ = c("fine")
	assert.False(t, flagged)
}

func TestModeratorToggleConcurrent(t *testing.T) {
	m := NewModerator(true, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(on bool) {
			defer wg.Done()
			m.SetEnabled(on)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			m.ModerateText("hello")
		}()
	}
	wg.Wait()
}
