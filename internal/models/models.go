package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type ModelConfig struct {
	Model string
	// Temperature is nil when the agent leaves it to the backend default.
	// Zero is a valid setting.
	Temperature *float64
	MaxTokens   int // 0 means backend default
}

// TemperatureOr returns the configured temperature, or def when unset.
func (c ModelConfig) TemperatureOr(def float64) float64 {
	if c.Temperature == nil {
		return def
	}
	return *c.Temperature
}

// Clone copies c without sharing the temperature pointer.
func (c ModelConfig) Clone() ModelConfig {
	if c.Temperature != nil {
		c.Temperature = Float(*c.Temperature)
	}
	return c
}

func Float(v float64) *float64 { return &v }

type Tool struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
}

// Capability has the same shape as Tool. Definitions are shared between agents.
type Capability Tool

type Agent struct {
	ID               string
	Name             string
	Role             string
	Tagline          string
	Description      string
	Avatar           string
	TVReference      string
	ModelConfig      ModelConfig
	Tools            []Tool
	Capabilities     []Capability
	KnowledgeSources []string
	WebAccess        bool
}

type Conversation struct {
	ID        string
	AgentID   string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID        string
	Role      Role
	Content   Content
	Timestamp time.Time
}

type FollowUpSuggestion struct {
	ID             string
	Text           string
	ConversationID string
}

// Feedback is a user rating of a single assistant reply
type Feedback struct {
	ID             string
	ConversationID string
	MessageID      string
	AgentID        string
	Rating         int
	Comment        string
	Timestamp      time.Time
}

func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func NewConversation(agentID string, now time.Time) Conversation {
	return Conversation{
		ID:        NewID("conv"),
		AgentID:   agentID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewUserMessage is the only constructor that accepts multi-part content.
func NewUserMessage(content Content, now time.Time) Message {
	return Message{ID: NewID("msg"), Role: RoleUser, Content: content, Timestamp: now}
}

// NewAssistantMessage flattens whatever it is given to plain text.
func NewAssistantMessage(text string, now time.Time) Message {
	return Message{ID: NewID("msg"), Role: RoleAssistant, Content: PlainText(text), Timestamp: now}
}

func NewSystemMessage(text string, now time.Time) Message {
	return Message{ID: NewID("msg"), Role: RoleSystem, Content: PlainText(text), Timestamp: now}
}

// Clone returns a copy that shares no slices with c.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m
		out.Messages[i].Content = m.Content.Clone()
	}
	return out
}
