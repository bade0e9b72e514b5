package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"personachat/internal/completion"
	"personachat/internal/models"
	"personachat/internal/styles"
)

func (m *Model) UpdateAgentSelectorContent() {
	var items []string
	for i, agent := range m.State.Agents {
		isSelected := i == m.SelectedAgentIndex
		isCurrent := m.State.SelectedAgent != nil && m.State.SelectedAgent.ID == agent.ID

		displayName := agent.Name
		if isCurrent {
			displayName = "● " + displayName
		} else {
			displayName = "  " + displayName
		}
		role := TruncateRunes(agent.Role, styles.ContentWidth-lipgloss.Width(displayName)-4)

		var styledItem string
		if isSelected {
			styledItem = styles.ModalSelectedStyle.Copy().
				Width(styles.ContentWidth).
				Render(displayName + "  " + role)
		} else {
			name := styles.AgentNameStyle.Copy().
				Foreground(styles.GetAgentColor(agent.ID)).
				Render(displayName)
			styledItem = styles.ModalItemStyle.Copy().
				Width(styles.ContentWidth).
				Render(name + " " + styles.DescStyle.Render(role))
		}
		items = append(items, styledItem)

		if isSelected && agent.Tagline != "" {
			tagline := TruncateRunes(agent.Tagline, styles.ContentWidth-6)
			items = append(items, styles.ModalItemStyle.Copy().
				Width(styles.ContentWidth).
				Render("    "+styles.DescStyle.Copy().Italic(true).Render(tagline)))
		}
	}

	m.AgentViewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, items...))
}

// SyncAgentViewportScroll keeps the highlighted agent visible. Every agent
// takes one line, and the highlighted one adds a tagline below it.
func (m *Model) SyncAgentViewportScroll() {
	top := m.SelectedAgentIndex
	bottom := top + 2
	if top < m.AgentViewport.YOffset {
		m.AgentViewport.SetYOffset(top)
	}
	if bottom > m.AgentViewport.YOffset+m.AgentViewport.Height {
		m.AgentViewport.SetYOffset(bottom - m.AgentViewport.Height)
	}
}

func (m *Model) RenderAgentSelector() string {
	title := styles.ModalTitleStyle.Render("Choose a Persona")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.AgentViewport.View())

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Enter: select • Esc: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+C", "Quit Application"},
		{"Ctrl+N", "New Conversation"},
		{"Ctrl+B", "Choose Persona"},
		{"Ctrl+E", "Dismiss Error"},
		{"Ctrl+S", "View Shortcuts (this menu)"},
		{"Alt+1..3", "Ask a Suggested Follow-up"},
		{"Shift+Enter", "New Line"},
		{"/image", "<path> [text] Send an Image"},
		{"/key", "[key] Set or Remove API Key"},
		{"/temp", "<0..1> Agent Temperature"},
		{"/model", "<id> Agent Model"},
		{"/moderation", "on|off Content Filter"},
		{"/rate", "<1-5> [comment] Rate Last Reply"},
		{"/clear", "Clear Conversation"},
	}

	var items []string
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCC80")).
		Bold(true).
		Width(13)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E0E0E0"})

	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), descStyle.Render(s.desc))
		items = append(items, styles.ModalItemStyle.Render(line))
	}

	listContent := lipgloss.JoinVertical(lipgloss.Left, items...)
	content := lipgloss.JoinVertical(lipgloss.Left, title, listContent)

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

// ModeBadge names the completion backend the next request will use.
func ModeBadge(st models.State) string {
	switch {
	case st.UsingMockAPI:
		return "MOCK"
	case st.APIKeyConfigured:
		return "LIVE"
	default:
		return "NO KEY"
	}
}

func (m *Model) RenderBottomBar() string {
	badgeText := ModeBadge(m.State)
	mode := styles.BadgeStyle.Copy().
		Background(styles.ModeColor(badgeText)).
		Render(badgeText)

	agentName := "no persona"
	modelText := ""
	if a := m.State.SelectedAgent; a != nil {
		agentName = a.Name
		modelText = fmt.Sprintf("%s · %.2f", TruncateRunes(a.ModelConfig.Model, 28), a.ModelConfig.TemperatureOr(completion.DefaultTemperature))
	}
	agent := lipgloss.NewStyle().
		Foreground(m.agentColor()).
		Bold(true).
		Render(TruncateRunes(agentName, 24))
	model := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(modelText)

	modText := "Filter: off"
	modColor := styles.CurrentTheme.Warning
	if m.State.ModerationEnabled {
		modText = "Filter: on"
		modColor = styles.CurrentTheme.TextMuted
	}
	moderation := lipgloss.NewStyle().Foreground(modColor).Render(modText)

	count := 0
	if m.State.ActiveConversation != nil {
		count = len(m.State.ActiveConversation.Messages)
	}
	msgs := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render(fmt.Sprintf("Msgs:%d", count))

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, mode, "  ", agent, "  ", model)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, moderation, "  ", msgs, "  ", help)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(bar)
}

// RenderFollowUps shows the suggestion chips for the active conversation.
func (m *Model) RenderFollowUps() string {
	if len(m.State.FollowUps) == 0 || m.State.Loading {
		return ""
	}
	var chips []string
	for i, f := range m.State.FollowUps {
		key := styles.ChipKeyStyle.Render(fmt.Sprintf("%d", i+1))
		chips = append(chips, styles.ChipStyle.Render(key+" "+TruncateRunes(f.Text, MaxFollowUpChipLen)))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, chips...)
	if m.WindowWidth > 0 && lipgloss.Width(row) > m.WindowWidth-4 {
		row = lipgloss.JoinVertical(lipgloss.Left, chips...)
	}
	return row
}

// RenderStatusLine shows the store error first, then any local notice.
func (m *Model) RenderStatusLine() string {
	if m.State.HasError() {
		return styles.ErrorStyle.Render("✗ "+m.State.Error) +
			lipgloss.NewStyle().Foreground(styles.HintColor).Render("  (^E to dismiss)")
	}
	if m.Notice == "" {
		return ""
	}
	if m.NoticeErr {
		return styles.ErrorStyle.Render("✗ " + m.Notice)
	}
	return styles.NoticeStyle.Render("✓ " + m.Notice)
}

func (m *Model) agentColor() lipgloss.Color {
	if m.State.SelectedAgent == nil {
		return styles.CurrentTheme.Primary
	}
	return styles.GetAgentColor(m.State.SelectedAgent.ID)
}

func GetWelcomeScreen(agent *models.Agent, width, height int) string {
	if agent == nil {
		content := lipgloss.JoinVertical(lipgloss.Center,
			styles.WelcomeArtStyle.Render("PERSONA CHAT"),
			"",
			styles.WelcomeSubtitleStyle.Render("Press Ctrl+B to choose who you want to talk to."),
		)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}

	color := styles.GetAgentColor(agent.ID)
	name := styles.WelcomeArtStyle.Copy().Foreground(color).Render(strings.ToUpper(agent.Name))
	role := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(agent.Role)
	tagline := styles.WelcomeSubtitleStyle.Render("“" + agent.Tagline + "”")

	lines := []string{name, role, "", tagline}
	if agent.TVReference != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.HintColor).Render("inspired by "+agent.TVReference))
	}
	if agent.Description != "" {
		descWidth := width - 8
		if descWidth > 70 {
			descWidth = 70
		}
		if descWidth < 10 {
			descWidth = 10
		}
		lines = append(lines, "", styles.DescStyle.Copy().Width(descWidth).Align(lipgloss.Center).Render(agent.Description))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) UpdateViewport() {
	var msgs []models.Message
	if m.State.ActiveConversation != nil {
		msgs = m.State.ActiveConversation.Messages
	}

	if len(msgs) == 0 && !m.State.Loading {
		m.Viewport.SetContent(GetWelcomeScreen(m.State.SelectedAgent, m.Viewport.Width, m.Viewport.Height))
		return
	}

	agentName := "ASSISTANT"
	if m.State.SelectedAgent != nil {
		agentName = strings.ToUpper(m.State.SelectedAgent.Name)
	}
	color := m.agentColor()

	parts := make([]string, 0, len(msgs)+1)
	for i, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			parts = append(parts, FormatUserMessage(msg, m.Viewport.Width, i == 0))
		case models.RoleAssistant:
			parts = append(parts, FormatAIMessage(agentName, m.renderMarkdown(msg), color))
		}
	}

	if m.State.Loading {
		label := styles.AiLabelStyle.Copy().Background(color).Render(agentName)
		parts = append(parts, fmt.Sprintf("%s\n%s is thinking...", label, m.Spinner.View()))
	}

	m.Viewport.SetContent(strings.Join(parts, "\n\n"))
	m.Viewport.GotoBottom()
}

// renderMarkdown runs glamour once per assistant message.
func (m *Model) renderMarkdown(msg models.Message) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	text := msg.Content.Text()
	if m.Renderer == nil {
		return text
	}
	out, err := m.Renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.TrimRight(out, "\n")
	if m.rendered == nil {
		m.rendered = map[string]string{}
	}
	m.rendered[msg.ID] = out
	return out
}

func (m *Model) View() string {
	inputWidth := m.WindowWidth - 4
	inputBox := styles.InputBoxStyle.Copy().
		BorderForeground(m.agentColor()).
		Width(inputWidth).
		Render(m.TextInput.View())

	title := "PERSONA CHAT"
	if a := m.State.SelectedAgent; a != nil {
		title = fmt.Sprintf("%s · %s", strings.ToUpper(a.Name), a.Role)
	}

	chatParts := []string{
		styles.TitleStyle.Copy().Foreground(m.agentColor()).Render(title),
		"",
		m.Viewport.View(),
	}
	if chips := m.RenderFollowUps(); chips != "" {
		chatParts = append(chatParts, chips)
	}
	chatParts = append(chatParts, m.RenderStatusLine(), inputBox)

	chatContent := lipgloss.JoinVertical(lipgloss.Center, chatParts...)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	content := lipgloss.JoinVertical(lipgloss.Left, chatArea, m.RenderBottomBar())

	var modal string
	switch {
	case m.AgentSelectorOpen:
		modal = m.RenderAgentSelector()
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	default:
		return content
	}

	modal = styles.ModalStyle.Width(m.ModalWidth).Render(modal)
	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}
