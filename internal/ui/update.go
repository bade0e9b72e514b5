package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"personachat/internal/agents"
	"personachat/internal/models"
	"personachat/internal/store"
	"personachat/internal/styles"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.State.Loading {
			m.UpdateViewport()
		}
		return m, spCmd

	case storeChangedMsg:
		wasLoading := m.State.Loading
		m.refresh()
		if m.State.Loading && !wasLoading {
			return m, m.Spinner.Tick
		}
		return m, nil

	case ResponseMsg:
		m.refresh()
		if msg.Err != nil && !errors.Is(msg.Err, store.ErrConversationCleared) {
			m.Logger.Debug("send finished with error", zap.Error(msg.Err))
		}
		return m, nil

	case NoticeMsg:
		m.setNotice(msg.Text, msg.Err)
		m.refresh()
		return m, nil

	case ErrMsg:
		m.setNotice("", msg)
		return m, nil

	case OpenAgentSelectorMsg:
		m.openAgentSelector()
		return m, nil

	case CloseAgentSelectorMsg:
		m.AgentSelectorOpen = false
		return m, nil

	case tea.KeyMsg:
		if m.AgentSelectorOpen {
			return m.updateAgentSelector(msg)
		}

		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "?", "ctrl+s":
				m.ShortcutsOpen = false
				return m, nil
			}
			return m, nil
		}

		if isNewlineShortcut(msg) {
			m.TextInput.InsertString("\n")
			m.updateInputLayout()
			return m, nil
		}

		switch msg.String() {
		case "alt+1", "alt+2", "alt+3":
			n, _ := strconv.Atoi(msg.String()[len("alt+"):])
			return m, m.sendFollowUp(n)
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlN:
			m.resetConversation()
			return m, nil

		case tea.KeyCtrlB:
			m.openAgentSelector()
			return m, nil

		case tea.KeyCtrlS:
			m.ShortcutsOpen = true
			m.AgentSelectorOpen = false
			return m, nil

		case tea.KeyCtrlE:
			m.Store.ClearError()
			m.Notice = ""
			m.refresh()
			return m, nil

		case tea.KeyEnter:
			input := strings.TrimSpace(m.TextInput.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.TextInput.Reset()
				m.updateInputLayout()
				return m, m.runCommand(input)
			}
			if m.State.Loading {
				return m, nil
			}
			m.TextInput.Reset()
			m.updateInputLayout()
			m.Notice = ""
			return m, tea.Batch(m.send(models.PlainText(input)), m.Spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		m.ModalWidth = msg.Width - 10
		if m.ModalWidth > DefaultModalWidth {
			m.ModalWidth = DefaultModalWidth
		}
		if m.ModalWidth < MinModalWidth {
			m.ModalWidth = MinModalWidth
		}
		styles.ContentWidth = m.ModalWidth - 6

		m.AgentViewport.Width = styles.ContentWidth
		m.AgentViewport.Height = msg.Height - 15
		if m.AgentViewport.Height > 20 {
			m.AgentViewport.Height = 20
		}
		if m.AgentViewport.Height < 5 {
			m.AgentViewport.Height = 5
		}

		chatWidth := msg.Width - 2
		if chatWidth > MaxChatWidth {
			chatWidth = MaxChatWidth
		}
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.rendered = map[string]string{}
		m.UpdateViewport()
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Filter out terminal background color queries and cursor reference codes that leak into the input
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Model) updateAgentSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.State.Agents)
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+b":
		m.AgentSelectorOpen = false
		return m, nil
	case "up", "k":
		if n == 0 {
			return m, nil
		}
		m.SelectedAgentIndex--
		if m.SelectedAgentIndex < 0 {
			m.SelectedAgentIndex = n - 1
		}
		m.UpdateAgentSelectorContent()
		m.SyncAgentViewportScroll()
		return m, nil
	case "down", "j":
		if n == 0 {
			return m, nil
		}
		m.SelectedAgentIndex++
		if m.SelectedAgentIndex >= n {
			m.SelectedAgentIndex = 0
		}
		m.UpdateAgentSelectorContent()
		m.SyncAgentViewportScroll()
		return m, nil
	case "enter":
		if n == 0 {
			return m, nil
		}
		agent := m.State.Agents[m.SelectedAgentIndex]
		m.AgentSelectorOpen = false
		if err := m.Store.SelectAgent(agent.ID); err != nil {
			m.setNotice("", err)
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *Model) openAgentSelector() {
	m.AgentSelectorOpen = true
	m.ShortcutsOpen = false
	if m.State.SelectedAgent != nil {
		if _, idx, ok := agents.Find(m.State.Agents, m.State.SelectedAgent.ID); ok {
			m.SelectedAgentIndex = idx
		}
	}
	m.UpdateAgentSelectorContent()
	m.SyncAgentViewportScroll()
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	maxInputHeight := 6
	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > maxInputHeight {
		lineCount = maxInputHeight
	}

	m.TextInput.MaxHeight = maxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	// title, follow-ups, status line and bottom bar.
	reserved := inputBoxHeight + 7
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}

// refresh pulls a fresh snapshot from the store and re-renders.
func (m *Model) refresh() {
	m.State = m.Store.Snapshot()
	if m.SelectedAgentIndex >= len(m.State.Agents) {
		m.SelectedAgentIndex = 0
	}
	if m.AgentSelectorOpen {
		m.UpdateAgentSelectorContent()
	}
	m.UpdateViewport()
}

func (m *Model) setNotice(text string, err error) {
	if err != nil {
		m.Notice = err.Error()
		m.NoticeErr = true
		return
	}
	m.Notice = text
	m.NoticeErr = false
}

// resetConversation drops the active conversation and starts a fresh one
// with the same agent.
func (m *Model) resetConversation() {
	agentID := ""
	if m.State.SelectedAgent != nil {
		agentID = m.State.SelectedAgent.ID
	}
	m.Store.ClearConversation()
	if agentID != "" {
		if err := m.Store.SelectAgent(agentID); err != nil {
			m.setNotice("", err)
		}
	}
	m.rendered = map[string]string{}
	m.Notice = ""
	m.refresh()
	m.Viewport.GotoTop()
}

func (m *Model) send(content models.Content) tea.Cmd {
	st := m.Store
	return func() tea.Msg {
		return ResponseMsg{Err: st.SendMessage(context.Background(), content)}
	}
}

func (m *Model) sendFollowUp(n int) tea.Cmd {
	if n < 1 || n > len(m.State.FollowUps) {
		m.setNotice("", fmt.Errorf("no follow-up suggestion %d", n))
		return nil
	}
	if m.State.Loading {
		return nil
	}
	text := m.State.FollowUps[n-1].Text
	return tea.Batch(m.send(models.PlainText(text)), m.Spinner.Tick)
}

// runCommand handles a slash command typed into the input.
func (m *Model) runCommand(input string) tea.Cmd {
	cmd, err := ParseCommand(input)
	if err != nil {
		m.setNotice("", err)
		return nil
	}
	st := m.Store

	switch cmd.Name {
	case "help":
		m.ShortcutsOpen = true
		return nil

	case "clear", "reset":
		m.resetConversation()
		return nil

	case "agent":
		if cmd.Arg == "" {
			m.openAgentSelector()
			return nil
		}
		if err := st.SelectAgent(cmd.Arg); err != nil {
			m.setNotice("", err)
		}
		m.refresh()
		return nil

	case "key":
		key := cmd.Arg
		return func() tea.Msg {
			if err := st.SetAPIKey(key); err != nil {
				return NoticeMsg{Err: err}
			}
			if key == "" {
				return NoticeMsg{Text: "API key removed, replies will be simulated"}
			}
			return NoticeMsg{Text: "API key saved"}
		}

	case "image":
		if m.State.Loading {
			return nil
		}
		path, text := SplitFirstArg(cmd.Arg)
		if path == "" {
			m.setNotice("", errors.New("usage: /image <path> [message]"))
			return nil
		}
		load := m.LoadImage
		return tea.Batch(func() tea.Msg {
			url, err := load(path)
			if err != nil {
				return NoticeMsg{Err: err}
			}
			return ResponseMsg{Err: st.SendImageMessage(context.Background(), text, url)}
		}, m.Spinner.Tick)

	case "temp":
		v, err := strconv.ParseFloat(cmd.Arg, 64)
		if err != nil {
			m.setNotice("", fmt.Errorf("usage: /temp <0..1>"))
			return nil
		}
		return m.updateSelectedAgent(agents.Update{Temperature: &v}, fmt.Sprintf("Temperature set to %.2f", v))

	case "model":
		if cmd.Arg == "" {
			m.setNotice("", errors.New("usage: /model <model-id>"))
			return nil
		}
		model := cmd.Arg
		return m.updateSelectedAgent(agents.Update{Model: &model}, "Model set to "+model)

	case "moderation":
		switch strings.ToLower(cmd.Arg) {
		case "on":
			st.SetModerationEnabled(true)
		case "off":
			st.SetModerationEnabled(false)
		default:
			m.setNotice("", errors.New("usage: /moderation on|off"))
			return nil
		}
		m.refresh()
		m.setNotice("Moderation "+strings.ToLower(cmd.Arg), nil)
		return nil

	case "rate":
		ratingArg, comment := SplitFirstArg(cmd.Arg)
		rating, err := strconv.Atoi(ratingArg)
		if err != nil {
			m.setNotice("", errors.New("usage: /rate <1-5> [comment]"))
			return nil
		}
		msg, ok := lastAssistantMessage(m.State)
		if !ok {
			m.setNotice("", errors.New("nothing to rate yet"))
			return nil
		}
		id := msg.ID
		return func() tea.Msg {
			if err := st.SubmitFeedback(id, rating, comment); err != nil {
				return NoticeMsg{Err: err}
			}
			return NoticeMsg{Text: fmt.Sprintf("Thanks! Rated %d/5", rating)}
		}

	case "f":
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil {
			m.setNotice("", errors.New("usage: /f <1-3>"))
			return nil
		}
		return m.sendFollowUp(n)
	}

	m.setNotice("", fmt.Errorf("unknown command /%s", cmd.Name))
	return nil
}

func (m *Model) updateSelectedAgent(u agents.Update, notice string) tea.Cmd {
	if m.State.SelectedAgent == nil {
		m.setNotice("", store.ErrNoActiveConversation)
		return nil
	}
	if err := m.Store.UpdateAgentSettings(m.State.SelectedAgent.ID, u); err != nil {
		m.setNotice("", err)
		m.refresh()
		return nil
	}
	m.refresh()
	m.setNotice(notice, nil)
	return nil
}

func lastAssistantMessage(st models.State) (models.Message, bool) {
	if st.ActiveConversation == nil {
		return models.Message{}, false
	}
	msgs := st.ActiveConversation.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return msgs[i], true
		}
	}
	return models.Message{}, false
}
