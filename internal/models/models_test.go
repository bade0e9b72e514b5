package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		c := PlainText("hello")
		assert.False(t, c.IsMultiPart())
		assert.Equal(t, "hello", c.Text())
		assert.False(t, c.HasImage())
		assert.Equal(t, []Part{TextPart("hello")}, c.Parts())
	})

	t.Run("multi part text skips images", func(t *testing.T) {
		c := MultiPart(TextPart("look"), ImagePart("data:image/png;base64,AA"), TextPart("here"))
		assert.True(t, c.IsMultiPart())
		assert.Equal(t, "look\nhere", c.Text())
		url, ok := c.FirstImageURL()
		require.True(t, ok)
		assert.Equal(t, "data:image/png;base64,AA", url)
		assert.Equal(t, 1, c.ImageCount())
	})

	t.Run("first image wins", func(t *testing.T) {
		c := MultiPart(ImagePart("a"), ImagePart("b"))
		url, _ := c.FirstImageURL()
		assert.Equal(t, "a", url)
		assert.Equal(t, 2, c.ImageCount())
	})

	t.Run("parts are copies", func(t *testing.T) {
		src := []Part{TextPart("x")}
		c := MultiPart(src...)
		src[0].Text = "mutated"
		parts := c.Parts()
		parts[0].Text = "also mutated"
		assert.Equal(t, "x", c.Text())
	})
}

func TestMessageConstructors(t *testing.T) {
	now := time.Now()

	user := NewUserMessage(MultiPart(TextPart("hi"), ImagePart("u")), now)
	assert.Equal(t, RoleUser, user.Role)
	assert.True(t, user.Content.HasImage())
	assert.NotEmpty(t, user.ID)

	assistant := NewAssistantMessage("reply", now)
	assert.Equal(t, RoleAssistant, assistant.Role)
	assert.False(t, assistant.Content.IsMultiPart())

	system := NewSystemMessage("rules", now)
	assert.Equal(t, RoleSystem, system.Role)
	assert.NotEqual(t, user.ID, assistant.ID)
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation("q", time.Now())
	conv.Messages = append(conv.Messages, NewUserMessage(PlainText("one"), time.Now()))

	cp := conv.Clone()
	cp.Messages[0].Content = PlainText("changed")
	cp.Messages = append(cp.Messages, NewAssistantMessage("two", time.Now()))

	assert.Len(t, conv.Messages, 1)
	assert.Equal(t, "one", conv.Messages[0].Content.Text())
}
