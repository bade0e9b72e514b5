package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"personachat/internal/media"
	"personachat/internal/store"
	"personachat/internal/styles"
)

type Options struct {
	Logger    *zap.Logger
	LoadImage func(path string) (string, error)
}

func InitialModel(st *store.Store, opts Options) Model {
	ti := textarea.New()
	ti.Placeholder = "Type a message, or /help for commands..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 6
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := opts.LoadImage
	if loader == nil {
		loader = media.LoadImage
	}

	m := Model{
		Store:         st,
		Logger:        logger,
		LoadImage:     loader,
		TextInput:     ti,
		Viewport:      viewport.New(60, 15),
		AgentViewport: viewport.New(DefaultModalWidth-4, 15),
		Spinner:       sp,
		rendered:      map[string]string{},
		ModalWidth:    DefaultModalWidth,
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.TextInput.Cursor.BlinkCmd(),
		m.Spinner.Tick,
	)
}

// NewProgram wires store change notifications into the program.
func NewProgram(st *store.Store, opts Options) (*tea.Program, *Model) {
	styles.InitTheme()
	m := InitialModel(st, opts)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	m.Program = p
	// Send blocks until the event loop reads it, and actions may run on the
	// event loop itself.
	st.SetOnChange(func() { go p.Send(storeChangedMsg{}) })
	return p, &m
}
