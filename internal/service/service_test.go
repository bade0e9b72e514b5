package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personachat/internal/agents"
	"personachat/internal/completion"
	"personachat/internal/models"
)

type call struct {
	system string
	turns  []completion.Turn
	image  string
	cfg    models.ModelConfig
}

type fakeCompleter struct {
	mu    sync.Mutex
	calls []call
	reply string
	err   error
}

func (f *fakeCompleter) GenerateResponse(_ context.Context, system string, turns []completion.Turn, cfg models.ModelConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system: system, turns: turns, cfg: cfg})
	return f.reply, f.err
}

func (f *fakeCompleter) GenerateImageResponse(_ context.Context, system string, turns []completion.Turn, url string, cfg models.ModelConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system: system, turns: turns, image: url, cfg: cfg})
	return f.reply, f.err
}

func agentByID(t *testing.T, id string) models.Agent {
	t.Helper()
	a, _, ok := agents.Find(agents.Default(), id)
	require.True(t, ok)
	return a
}

func history() []models.Message {
	return []models.Message{
		models.NewUserMessage(models.MultiPart(models.TextPart("look"), models.ImagePart("data:image/png;base64,OLD")), fixedNow),
		models.NewAssistantMessage("nice picture", fixedNow),
		models.NewSystemMessage("internal note", fixedNow),
	}
}

func TestChat_TextPath(t *testing.T) {
	fake := &fakeCompleter{reply: "hello"}
	s := New(fake, nil, nil)
	agent := agentByID(t, "jarvis")

	out, err := s.Chat(context.Background(), agent, models.PlainText("schedule lunch"), history())
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	require.Len(t, fake.calls, 1)
	c := fake.calls[0]
	assert.Empty(t, c.image)
	assert.Equal(t, SystemPrompt(agent), c.system)
	assert.Equal(t, agent.ModelConfig, c.cfg)

	// System messages are dropped and earlier images flattened.
	require.Len(t, c.turns, 3)
	assert.Equal(t, models.RoleUser, c.turns[0].Role)
	assert.False(t, c.turns[0].Content.HasImage())
	assert.Equal(t, "look", c.turns[0].Content.Text())
	assert.Equal(t, models.RoleAssistant, c.turns[1].Role)
	assert.Equal(t, "schedule lunch", c.turns[2].Content.Text())
}

func TestChat_ImagePathUsesFirstImageOnly(t *testing.T) {
	fake := &fakeCompleter{reply: "a cat"}
	s := New(fake, nil, nil)

	content := models.MultiPart(
		models.TextPart("what are these"),
		models.ImagePart("data:image/png;base64,ONE"),
		models.ImagePart("data:image/png;base64,TWO"),
	)
	out, err := s.Chat(context.Background(), agentByID(t, "q"), content, nil)
	require.NoError(t, err)
	assert.Equal(t, "a cat", out)

	require.Len(t, fake.calls, 1)
	c := fake.calls[0]
	assert.Equal(t, "data:image/png;base64,ONE", c.image)
	last := c.turns[len(c.turns)-1]
	assert.Equal(t, 1, last.Content.ImageCount())
	assert.Equal(t, "what are these", last.Content.Text())
}

func TestChat_WrapsErrors(t *testing.T) {
	cause := errors.New("mock backend: context canceled")
	s := New(&fakeCompleter{err: cause}, nil, nil)

	_, err := s.Chat(context.Background(), agentByID(t, "q"), models.PlainText("hi"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrchestration)
	assert.ErrorIs(t, err, cause)
}

func TestChat_MockClientEndToEnd(t *testing.T) {
	client := completion.NewClient("", completion.Options{Mock: completion.NewMockBackend(0, 0)})
	s := New(client, nil, nil)

	out, err := s.Chat(context.Background(), agentByID(t, "better-call-saul"), models.PlainText("I got a ticket"), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Better Call Saul!")
	assert.Contains(t, out, "I got a ticket")
	assert.True(t, client.IsUsingMockAPI())
}

func TestSystemPrompt(t *testing.T) {
	agent := agentByID(t, "sheldon-gpt")
	agent.Tools[1].Enabled = false
	agent.Capabilities = []models.Capability{
		{ID: "on", Name: "Citations", Enabled: true},
		{ID: "off", Name: "Hidden Power", Enabled: false},
	}

	p := SystemPrompt(agent)
	assert.True(t, strings.HasPrefix(p, "You are SheldonGPT, Research Assistant."))
	assert.Contains(t, p, agent.Description)
	assert.Contains(t, p, agent.TVReference)
	assert.Contains(t, p, agent.Tagline)
	assert.Contains(t, p, agent.Tools[0].Name+" ("+agent.Tools[0].Description+")")
	assert.NotContains(t, p, agent.Tools[1].Name)
	assert.Contains(t, p, "Citations")
	assert.NotContains(t, p, "Hidden Power")
	for _, k := range agent.KnowledgeSources {
		assert.Contains(t, p, k)
	}

	agent.WebAccess = true
	assert.Contains(t, SystemPrompt(agent), "You have access to the web")
	agent.WebAccess = false
	assert.Contains(t, SystemPrompt(agent), "You do not have web access.")
}

func TestGenerateFollowUpSuggestions(t *testing.T) {
	t.Run("uses dedicated prompt and temperature", func(t *testing.T) {
		fake := &fakeCompleter{reply: "1. First?\n2. Second?\n3. Third?\n4. Fourth?"}
		s := New(fake, nil, nil)
		agent := agentByID(t, "wolf-of-wall-street")

		got := s.GenerateFollowUpSuggestions(context.Background(), agent, history())
		assert.Equal(t, []string{"First?", "Second?", "Third?"}, got)

		require.Len(t, fake.calls, 1)
		c := fake.calls[0]
		assert.Contains(t, c.system, completion.FollowUpMarker)
		require.NotNil(t, c.cfg.Temperature)
		assert.Equal(t, followUpTemperature, *c.cfg.Temperature)
		assert.NotEqual(t, followUpTemperature, *agent.ModelConfig.Temperature, "agent config is not mutated")
		assert.Equal(t, agent.ModelConfig.Model, c.cfg.Model)
	})

	t.Run("errors are swallowed", func(t *testing.T) {
		s := New(&fakeCompleter{err: errors.New("down")}, nil, nil)
		got := s.GenerateFollowUpSuggestions(context.Background(), agentByID(t, "q"), history())
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("mock backend produces three questions", func(t *testing.T) {
		client := completion.NewClient("", completion.Options{Mock: completion.NewMockBackend(0, 0)})
		s := New(client, nil, nil)
		got := s.GenerateFollowUpSuggestions(context.Background(), agentByID(t, "q"), history())
		assert.Len(t, got, 3)
		for _, q := range got {
			assert.True(t, strings.HasSuffix(q, "?"), q)
		}
	})
}

func TestParseFollowUpQuestions(t *testing.T) {
	long := "Could you explain in great detail how every single component of the proposed architecture interacts with the others?"
	require.Greater(t, utf8.RuneCountInString(long), 100)

	cases := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "numbered lines",
			reply: "1. What is X?\n2. How about Y?\nSome filler.\n3. Why Z?",
			want:  []string{"What is X?", "How about Y?", "Why Z?"},
		},
		{
			name:  "question lines without numbering",
			reply: "Here are some ideas:\nWhat about pricing?\nHow long does it take?",
			want:  []string{"What about pricing?", "How long does it take?"},
		},
		{
			name:  "numbered tier wins over plain question lines",
			reply: "Is this ignored?\n1. Is this kept?",
			want:  []string{"Is this kept?"},
		},
		{
			name:  "sentence split",
			reply: "Here is a thought. Why not try it? Also consider this. Is it worth it? Done.",
			want:  []string{"Why not try it?", "Is it worth it?"},
		},
		{
			name:  "decimal point does not end a sentence",
			reply: "You could ask whether version 2.5 is faster? Or stay put.",
			want:  []string{"You could ask whether version 2.5 is faster?"},
		},
		{
			name:  "version numbers inside a sentence",
			reply: "Noted. Want the v1.2 notes? Fine.",
			want:  []string{"Want the v1.2 notes?"},
		},
		{
			name:  "long question truncated",
			reply: long,
			want:  []string{string([]rune(long)[:97]) + "…"},
		},
		{
			name:  "no questions",
			reply: "Nothing to ask here. Really.",
			want:  []string{},
		},
		{
			name:  "empty",
			reply: "",
			want:  []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseFollowUpQuestions(tc.reply))
		})
	}
}

func TestParseFollowUpQuestionsTruncatedLength(t *testing.T) {
	got := ParseFollowUpQuestions(strings.Repeat("é", 150) + "?")
	require.Len(t, got, 1)
	assert.Equal(t, 98, utf8.RuneCountInString(got[0]))
	assert.True(t, strings.HasSuffix(got[0], "…"))
}

func TestCreateImageMessage(t *testing.T) {
	c, err := CreateImageMessage("describe", "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	parts := c.Parts()
	require.Len(t, parts, 2)
	assert.Equal(t, models.TextPart("describe"), parts[0])
	assert.Equal(t, models.ImagePart("data:image/jpeg;base64,AAAA"), parts[1])

	_, err = CreateImageMessage("x", "https://example.com/cat.png")
	assert.NoError(t, err)

	for _, bad := range []string{"", "  ", "data:text/plain;base64,AAAA", "ftp://host/cat.png", "/tmp/cat.png"} {
		_, err := CreateImageMessage("x", bad)
		assert.ErrorIs(t, err, ErrInvalidImage, bad)
	}
}
