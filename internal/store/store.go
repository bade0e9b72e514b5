// Package store holds the application state: the agent registry, the
// conversations and the status flags the UI renders. All mutation goes
// through Store's action methods.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"personachat/internal/agents"
	"personachat/internal/models"
	"personachat/internal/service"
)

var (
	ErrNoActiveConversation = errors.New("no active conversation or agent selected")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrContentFlagged       = errors.New("content flagged as inappropriate")
	ErrConversationCleared  = errors.New("conversation was cleared before the reply arrived")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrMessageNotFound      = errors.New("message not found")
)

// User-visible error strings recorded in State.Error.
const (
	errTextNoActive     = "No active conversation or agent selected"
	errTextFlagged      = "Content flagged as inappropriate"
	errTextFailed       = "Failed to get response from AI service"
	errTextInvalidImage = "Failed to attach image"
	errTextSaveKey      = "Failed to save API key"
	errTextSaveFeedback = "Failed to save feedback"
	emptyReplyApology   = "I apologize, but I couldn't generate a response. Please try again."
	minFollowUpMessages = 2
)

// Orchestrator is the AI service as seen by the store.
type Orchestrator interface {
	Chat(ctx context.Context, agent models.Agent, content models.Content, history []models.Message) (string, error)
	GenerateFollowUpSuggestions(ctx context.Context, agent models.Agent, history []models.Message) []string
	ModerateContent(content models.Content) bool
	SetModerationEnabled(enabled bool)
	ModerationEnabled() bool
}

// Credentials is the completion client's credential surface.
type Credentials interface {
	SetAPIKey(key string)
	IsConfigured() bool
	IsUsingMockAPI() bool
}

type CredentialStore interface {
	SaveAPIKey(key string) error
}

type FeedbackStore interface {
	SaveFeedback(f models.Feedback) error
}

type Options struct {
	// Agents seeds the registry. Defaults to agents.Default().
	Agents      []models.Agent
	Credentials CredentialStore
	Feedback    FeedbackStore
	Logger      *zap.Logger
	Now         func() time.Time
	OnChange    func()
}

type Store struct {
	mu sync.Mutex

	ai     Orchestrator
	client Credentials
	creds  CredentialStore
	sink   FeedbackStore
	logger *zap.Logger
	now    func() time.Time

	agents        []models.Agent
	selected      *models.Agent
	conversations []*models.Conversation
	activeID      string
	followUps     []models.FollowUpSuggestion
	// followUpSeq counts refreshes per conversation. Only the newest
	// refresh of a conversation may publish its suggestions.
	followUpSeq map[string]uint64
	feedback    []models.Feedback
	inFlight    int
	errText     string
	usingMock   bool

	onChange func()

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ai Orchestrator, client Credentials, opts Options) *Store {
	list := opts.Agents
	if list == nil {
		list = agents.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Store{
		ai:          ai,
		client:      client,
		creds:       opts.Credentials,
		sink:        opts.Feedback,
		logger:      logger,
		now:         now,
		agents:      agents.CloneAll(list),
		followUpSeq: map[string]uint64{},
		usingMock:   client.IsUsingMockAPI(),
		onChange:    opts.OnChange,
		bg:          bg,
		cancel:      cancel,
	}
}

// SetOnChange installs the hook called after every state change. The hook
// runs outside the store lock and may call Snapshot.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Wait blocks until background follow-up generation has finished.
func (s *Store) Wait() { s.wg.Wait() }

// Close cancels background work and waits for it.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) Snapshot() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.State{
		Agents:            agents.CloneAll(s.agents),
		Conversations:     make([]models.Conversation, 0, len(s.conversations)),
		APIKeyConfigured:  s.client.IsConfigured(),
		FollowUps:         append([]models.FollowUpSuggestion(nil), s.followUps...),
		Loading:           s.inFlight > 0,
		Error:             s.errText,
		UsingMockAPI:      s.usingMock,
		ModerationEnabled: s.ai.ModerationEnabled(),
	}
	if s.selected != nil {
		a := agents.Clone(*s.selected)
		st.SelectedAgent = &a
	}
	for _, c := range s.conversations {
		cp := c.Clone()
		st.Conversations = append(st.Conversations, cp)
		if c.ID == s.activeID {
			active := c.Clone()
			st.ActiveConversation = &active
		}
	}
	return st
}

func (s *Store) SelectAgent(id string) error {
	s.mu.Lock()
	agent, _, ok := agents.Find(s.agents, id)
	if !ok {
		s.errText = fmt.Sprintf("Agent %q not found", id)
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	s.selected = &agent
	conv := s.conversationForAgentLocked(id)
	if conv == nil {
		c := models.NewConversation(id, s.now())
		conv = &c
		s.conversations = append(s.conversations, conv)
		s.logger.Debug("conversation created", zap.String("agent", id), zap.String("conversation", c.ID))
	}
	if s.activeID != conv.ID {
		s.followUps = nil
	}
	s.activeID = conv.ID
	s.errText = ""
	s.mu.Unlock()

	s.notify()
	return nil
}

// SendMessage runs one turn: moderation, user append, completion, reply
// append, then background follow-up generation. The reply is written to
// the conversation the message was sent from, even if the user has since
// switched agents.
func (s *Store) SendMessage(ctx context.Context, content models.Content) error {
	s.mu.Lock()
	conv := s.activeLocked()
	if conv == nil || s.selected == nil {
		s.errText = errTextNoActive
		s.mu.Unlock()
		s.notify()
		return ErrNoActiveConversation
	}

	if !s.ai.ModerateContent(content) {
		s.errText = errTextFlagged
		s.mu.Unlock()
		s.notify()
		return ErrContentFlagged
	}

	convID := conv.ID
	agent := agents.Clone(*s.selected)
	history := conv.Clone().Messages
	s.appendLocked(conv, models.NewUserMessage(content.Clone(), s.now()))
	s.inFlight++
	s.errText = ""
	s.mu.Unlock()
	s.notify()

	s.logger.Info("message sent",
		zap.String("agent", agent.ID),
		zap.String("conversation", convID),
		zap.Bool("image", content.HasImage()))

	reply, chatErr := s.ai.Chat(ctx, agent, content, history)

	s.mu.Lock()
	s.inFlight--
	s.usingMock = s.client.IsUsingMockAPI()
	target := s.conversationLocked(convID)
	if target == nil {
		s.mu.Unlock()
		s.logger.Warn("discarding reply for cleared conversation", zap.String("conversation", convID))
		s.notify()
		return ErrConversationCleared
	}

	if chatErr != nil {
		s.appendLocked(target, models.NewAssistantMessage(
			fmt.Sprintf("Sorry, I encountered an error: %s", chatErr.Error()), s.now()))
		s.errText = errTextFailed
		s.mu.Unlock()
		s.notify()
		return chatErr
	}

	if strings.TrimSpace(reply) == "" {
		reply = emptyReplyApology
	}
	s.appendLocked(target, models.NewAssistantMessage(reply, s.now()))
	s.mu.Unlock()
	s.notify()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshFollowUps(s.bg, convID)
	}()
	return nil
}

// SendImageMessage attaches imageURL to text and sends it.
func (s *Store) SendImageMessage(ctx context.Context, text, imageURL string) error {
	content, err := service.CreateImageMessage(text, imageURL)
	if err != nil {
		s.mu.Lock()
		s.errText = fmt.Sprintf("%s: %v", errTextInvalidImage, err)
		s.mu.Unlock()
		s.notify()
		return err
	}
	return s.SendMessage(ctx, content)
}

func (s *Store) UpdateAgentSettings(id string, u agents.Update) error {
	if err := u.Validate(); err != nil {
		s.mu.Lock()
		s.errText = err.Error()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	_, idx, ok := agents.Find(s.agents, id)
	if !ok {
		s.errText = fmt.Sprintf("Agent %q not found", id)
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	s.agents[idx] = agents.Apply(s.agents[idx], u)
	if s.selected != nil && s.selected.ID == id {
		updated := agents.Clone(s.agents[idx])
		s.selected = &updated
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearConversation drops the active conversation. The selected agent is kept.
func (s *Store) ClearConversation() {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return
	}
	for i, c := range s.conversations {
		if c.ID == s.activeID {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			break
		}
	}
	delete(s.followUpSeq, s.activeID)
	s.activeID = ""
	s.followUps = nil
	s.mu.Unlock()
	s.notify()
}

// GenerateFollowUps regenerates suggestions for the active conversation.
func (s *Store) GenerateFollowUps(ctx context.Context) {
	s.mu.Lock()
	id := s.activeID
	s.mu.Unlock()
	if id == "" {
		return
	}
	s.refreshFollowUps(ctx, id)
}

func (s *Store) refreshFollowUps(ctx context.Context, convID string) {
	s.mu.Lock()
	conv := s.conversationLocked(convID)
	if conv == nil || len(conv.Messages) < minFollowUpMessages {
		s.mu.Unlock()
		return
	}
	agent, _, ok := agents.Find(s.agents, conv.AgentID)
	history := conv.Clone().Messages
	s.followUpSeq[convID]++
	seq := s.followUpSeq[convID]
	s.mu.Unlock()
	if !ok {
		return
	}

	questions := s.ai.GenerateFollowUpSuggestions(ctx, agent, history)

	s.mu.Lock()
	if s.activeID != convID {
		s.mu.Unlock()
		s.logger.Debug("dropping follow-ups for inactive conversation", zap.String("conversation", convID))
		return
	}
	if s.followUpSeq[convID] != seq {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded follow-ups", zap.String("conversation", convID), zap.Uint64("seq", seq))
		return
	}
	next := make([]models.FollowUpSuggestion, 0, len(questions))
	for _, q := range questions {
		next = append(next, models.FollowUpSuggestion{ID: models.NewID("followup"), Text: q, ConversationID: convID})
	}
	s.followUps = next
	s.mu.Unlock()
	s.notify()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.errText = ""
	s.mu.Unlock()
	s.notify()
}

// SetAPIKey reconfigures the completion client and persists key. An empty
// key forgets the stored one.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	s.client.SetAPIKey(key)

	var err error
	if s.creds != nil {
		err = s.creds.SaveAPIKey(key)
	}

	s.mu.Lock()
	s.usingMock = s.client.IsUsingMockAPI()
	if err != nil {
		s.errText = errTextSaveKey
		s.logger.Error("saving api key failed", zap.Error(err))
	}
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *Store) SetModerationEnabled(enabled bool) {
	s.ai.SetModerationEnabled(enabled)
	s.logger.Info("moderation toggled", zap.Bool("enabled", enabled))
	s.notify()
}

// SubmitFeedback rates an assistant message of the active conversation.
func (s *Store) SubmitFeedback(messageID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	s.mu.Lock()
	conv := s.activeLocked()
	if conv == nil {
		s.mu.Unlock()
		return ErrNoActiveConversation
	}
	found := false
	for _, m := range conv.Messages {
		if m.ID == messageID && m.Role == models.RoleAssistant {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	fb := models.Feedback{
		ID:             models.NewID("feedback"),
		ConversationID: conv.ID,
		MessageID:      messageID,
		AgentID:        conv.AgentID,
		Rating:         rating,
		Comment:        strings.TrimSpace(comment),
		Timestamp:      s.now(),
	}
	s.feedback = append(s.feedback, fb)
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.SaveFeedback(fb); err != nil {
			s.logger.Error("saving feedback failed", zap.Error(err))
			s.mu.Lock()
			s.errText = errTextSaveFeedback
			s.mu.Unlock()
			s.notify()
			return err
		}
	}
	s.logger.Info("feedback recorded", zap.String("agent", fb.AgentID), zap.Int("rating", rating))
	s.notify()
	return nil
}

// Feedback returns the feedback submitted during this session.
func (s *Store) Feedback() []models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Feedback(nil), s.feedback...)
}

func (s *Store) activeLocked() *models.Conversation {
	if s.activeID == "" {
		return nil
	}
	return s.conversationLocked(s.activeID)
}

func (s *Store) conversationLocked(id string) *models.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) conversationForAgentLocked(agentID string) *models.Conversation {
	for _, c := range s.conversations {
		if c.AgentID == agentID {
			return c
		}
	}
	return nil
}

// appendLocked keeps message timestamps non-decreasing even if the clock
// steps backwards.
func (s *Store) appendLocked(c *models.Conversation, m models.Message) {
	if n := len(c.Messages); n > 0 && m.Timestamp.Before(c.Messages[n-1].Timestamp) {
		m.Timestamp = c.Messages[n-1].Timestamp
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = m.Timestamp
}
