package completion

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personachat/internal/models"
)

func TestMockReply(t *testing.T) {
	cases := []struct {
		name   string
		system string
		want   string
	}{
		{"saul", "You are Better Call Saul, Legal Strategist.", "Better Call Saul!"},
		{"sheldon", "You are SheldonGPT, Research Assistant.", "Bazinga!"},
		{"wolf", "You are Wolf of Wall Street, Sales Assistant.", "TAKE IT"},
		{"jarvis", "You are Jarvis, Admin / Personal Assistant.", "Of course, sir."},
		{"q", "You are Q, Prompt Optimizer & Data Analyst.", "007"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := MockReply(tc.system, "Optimize this prompt", false)
			assert.Contains(t, out, tc.want)
			assert.Contains(t, out, "Optimize this prompt")
			assert.Contains(t, strings.ToLower(out), "mock mode")
		})
	}

	t.Run("generic", func(t *testing.T) {
		out := MockReply("You are somebody else.", "hi", false)
		assert.Contains(t, out, "mock mode")
	})

	t.Run("capital Q elsewhere is not the Q persona", func(t *testing.T) {
		out := MockReply("Quietly answer questions.", "hi", false)
		assert.NotContains(t, out, "007")
	})

	t.Run("image", func(t *testing.T) {
		out := MockReply("You are Q, gadgets.", "see", true)
		assert.Contains(t, out, "can't actually see the image")
	})

	t.Run("follow-ups are numbered questions", func(t *testing.T) {
		out := MockReply("generate 3 relevant follow-up questions", "budget", false)
		assert.Contains(t, out, "1. ")
		assert.Contains(t, out, "3. ")
		assert.Equal(t, 3, strings.Count(out, "?"))
	})
}

func TestMockBackendComplete(t *testing.T) {
	m := NewMockBackend(0, 0)
	req := Request{
		Messages: []Turn{
			SystemTurn("You are Jarvis, Admin."),
			UserTurn(models.PlainText("book a meeting")),
		},
	}
	resp, err := m.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ID, "mock-"))
	assert.Equal(t, DefaultMockModel, resp.Model)
	assert.Equal(t, utf8.RuneCountInString("book a meeting"), resp.Usage.PromptTokens)
	assert.Equal(t, utf8.RuneCountInString(resp.Content), resp.Usage.CompletionTokens)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestMockBackendEchoesModel(t *testing.T) {
	m := NewMockBackend(0, 0)
	resp, err := m.Complete(context.Background(), Request{Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", resp.Model)
}

func TestMockBackendDelay(t *testing.T) {
	m := NewMockBackend(20*time.Millisecond, 40*time.Millisecond)
	for i := 0; i < 20; i++ {
		d := m.delay()
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.Less(t, d, 40*time.Millisecond)
	}

	start := time.Now()
	_, err := m.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMockBackendHonoursCancellation(t *testing.T) {
	m := NewMockBackend(time.Minute, 2*time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockBackendSwappedDelays(t *testing.T) {
	m := NewMockBackend(30*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 30*time.Millisecond, m.delay())
}
