package completion

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	DefaultMockModel    = "mock-llama-4"
	DefaultMockMinDelay = 1 * time.Second
	DefaultMockMaxDelay = 2 * time.Second

	// FollowUpMarker appears in the follow-up generation prompt. The mock
	// answers such requests with numbered questions.
	FollowUpMarker = "follow-up questions"

	mockFooter = "\n\n_(Mock mode: no live API connection, this reply was simulated locally.)_"
)

// personaReplies are matched against the system prompt in order.
var personaReplies = []struct {
	marker string
	reply  func(user string) string
}{
	{"Better Call Saul", func(u string) string {
		return fmt.Sprintf("Well, well, well. You've got a legal question on your hands, huh? %q - that's quite the situation you've got there.\n\n"+
			"Let me tell you something, as your legal counsel, I'd advise you to consider all your options carefully. "+
			"The law is complicated, but that's why you've got me - Saul Goodman - in your corner.\n\n"+
			"Need anything else? Just say the word. Remember: Better Call Saul!", u)
	}},
	{"SheldonGPT", func(u string) string {
		return fmt.Sprintf("Fascinating question: %q.\n\n"+
			"According to my superior intellect and extensive research, I can provide you with a comprehensive answer that few others would be capable of understanding. "+
			"The scientific literature on this topic is quite clear, though I suspect I'm the only one who has read all 127 relevant papers.\n\n"+
			"Bazinga! That was a joke. Though my answer is, of course, entirely factual.", u)
	}},
	{"Wolf of Wall Street", func(u string) string {
		return fmt.Sprintf("Listen, pal. %q - that's a great question. Let me tell you something: in this business, you gotta be bold. You gotta take risks.\n\n"+
			"Here's what I'd do in your situation... I'd double down. I'd go all in. "+
			"Because the winners in this world aren't the ones who play it safe. They're the ones who see an opportunity and TAKE IT.\n\n"+
			"You feeling motivated yet? Because I'm just getting started!", u)
	}},
	{"Jarvis", func(u string) string {
		return fmt.Sprintf("Of course, sir. Regarding %q - I've analyzed the situation and prepared several options for you.\n\n"+
			"May I suggest approaching this methodically? I've taken the liberty of organizing the relevant information and can present it in whatever format you prefer.\n\n"+
			"Would you like me to proceed with the standard protocol, or shall I adapt to your current preferences?", u)
	}},
	{"You are Q,", func(u string) string {
		return fmt.Sprintf("Ah, 007, asking about %q I see.\n\n"+
			"I've been working on something rather special that might help with this particular... predicament. It's a sophisticated solution, if I do say so myself.\n\n"+
			"This new approach optimizes for both precision and creativity, allowing you to navigate complex scenarios with remarkable efficiency. "+
			"Shall I explain the technical specifications, or would you prefer a practical demonstration?", u)
	}},
}

// MockBackend is a local, always-successful stand-in for the real endpoint.
type MockBackend struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewMockBackend(minDelay, maxDelay time.Duration) *MockBackend {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &MockBackend{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Complete only fails when ctx is done before the simulated latency elapses.
func (m *MockBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	system := systemText(req.Messages)
	var userText string
	var hasImage bool
	if u, ok := lastUser(req.Messages); ok {
		userText = u.Content.Text()
		hasImage = u.Content.HasImage()
	}

	content := MockReply(system, userText, hasImage)

	if d := m.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = DefaultMockModel
	}
	prompt := utf8.RuneCountInString(userText)
	completion := utf8.RuneCountInString(content)
	return &Response{
		ID:      fmt.Sprintf("mock-%d", m.now().UnixNano()),
		Model:   model,
		Content: content,
		Usage: Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func (m *MockBackend) delay() time.Duration {
	if m.MaxDelay <= 0 {
		return 0
	}
	span := m.MaxDelay - m.MinDelay
	if span <= 0 {
		return m.MinDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MinDelay + time.Duration(m.rng.Int63n(int64(span)))
}

// MockReply builds the simulated reply for a system prompt and user message.
func MockReply(systemPrompt, userText string, hasImage bool) string {
	switch {
	case strings.Contains(systemPrompt, FollowUpMarker):
		return mockFollowUps(userText)
	case hasImage:
		return "I notice you've shared an image with me. Since I'm running in mock mode, I can't actually see the image content. " +
			"With a valid API key I would analyze the image and provide relevant insights. Please configure the API key to enable image processing capabilities."
	}
	for _, p := range personaReplies {
		if strings.Contains(systemPrompt, p.marker) {
			return p.reply(userText) + mockFooter
		}
	}
	return fmt.Sprintf("Thank you for your message: %q.\n\n"+
		"I'm currently running in mock mode because the API connection isn't available. "+
		"This is a simulated response to show that the chat interface is functioning properly.\n\n"+
		"With a working API key you would be getting responses from the actual AI model.", userText)
}

func mockFollowUps(userText string) string {
	topic := strings.TrimSpace(userText)
	if r := []rune(topic); len(r) > 40 {
		topic = string(r[:40]) + "..."
	}
	if topic == "" {
		topic = "this"
	}
	return fmt.Sprintf("Here are some questions you could ask next:\n"+
		"1. Can you go deeper on %q?\n"+
		"2. What would you recommend as a first step?\n"+
		"3. Are there any risks I should watch out for?", topic)
}
