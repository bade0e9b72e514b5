package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"personachat/internal/models"
	"personachat/internal/store"
)

const (
	MaxChatWidth       = 100
	DefaultModalWidth  = 60
	MinModalWidth      = 30
	MaxFollowUpChipLen = 48
)

type ErrMsg error

// ResponseMsg is returned by commands that ran a store action.
type ResponseMsg struct {
	Err error
}

// NoticeMsg carries a one-line status message for the user.
type NoticeMsg struct {
	Text string
	Err  error
}

type storeChangedMsg struct{}

type (
	OpenAgentSelectorMsg  struct{}
	CloseAgentSelectorMsg struct{}
)

type Model struct {
	Store  *store.Store
	State  models.State
	Logger *zap.Logger

	// LoadImage turns a file path into a data URL.
	LoadImage func(path string) (string, error)

	Viewport      viewport.Model
	AgentViewport viewport.Model
	TextInput     textarea.Model
	Spinner       spinner.Model
	Renderer      *glamour.TermRenderer
	// rendered caches glamour output per message id.
	rendered map[string]string

	WindowWidth  int
	WindowHeight int
	ModalWidth   int

	AgentSelectorOpen  bool
	SelectedAgentIndex int
	ShortcutsOpen      bool

	Notice    string
	NoticeErr bool

	Program *tea.Program
}
