package models

// State is a point-in-time copy of the conversation store. Nothing in it
// aliases the store's own slices.
type State struct {
	Agents             []Agent
	SelectedAgent      *Agent
	Conversations      []Conversation
	ActiveConversation *Conversation
	APIKeyConfigured   bool
	FollowUps          []FollowUpSuggestion
	Loading            bool
	Error              string
	UsingMockAPI       bool
	ModerationEnabled  bool
}

// HasError reports whether the last action left a user-visible error.
func (s State) HasError() bool { return s.Error != "" }
