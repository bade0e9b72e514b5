package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color scheme for the application
type Theme struct {
	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Text colors
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border lipgloss.Color

	// Completion backend badges
	ModeLive  lipgloss.Color
	ModeMock  lipgloss.Color
	ModeNoKey lipgloss.Color
}

// DarkTheme is the dark mode color scheme
var DarkTheme = Theme{
	Primary:   lipgloss.Color("#818CF8"), // Indigo 400
	Secondary: lipgloss.Color("#22D3EE"), // Cyan 400
	Accent:    lipgloss.Color("#F472B6"), // Pink 400

	TextPrimary:   lipgloss.Color("#F1F5F9"),
	TextSecondary: lipgloss.Color("#94A3B8"),
	TextMuted:     lipgloss.Color("#64748B"),

	Success: lipgloss.Color("#34D399"),
	Warning: lipgloss.Color("#FBBF24"),
	Error:   lipgloss.Color("#FB7185"),
	Info:    lipgloss.Color("#60A5FA"),

	Border: lipgloss.Color("#27272A"),

	ModeLive:  lipgloss.Color("#34D399"),
	ModeMock:  lipgloss.Color("#FBBF24"),
	ModeNoKey: lipgloss.Color("#64748B"),
}

// LightTheme is the light mode color scheme
var LightTheme = Theme{
	Primary:   lipgloss.Color("#4F46E5"),
	Secondary: lipgloss.Color("#0891B2"),
	Accent:    lipgloss.Color("#DB2777"),

	TextPrimary:   lipgloss.Color("#18181B"),
	TextSecondary: lipgloss.Color("#52525B"),
	TextMuted:     lipgloss.Color("#A1A1AA"),

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),
	Info:    lipgloss.Color("#3B82F6"),

	Border: lipgloss.Color("#E4E4E7"),

	ModeLive:  lipgloss.Color("#10B981"),
	ModeMock:  lipgloss.Color("#F59E0B"),
	ModeNoKey: lipgloss.Color("#A1A1AA"),
}

// CurrentTheme holds the active theme (set at runtime based on terminal)
var CurrentTheme = DarkTheme

// AgentColorMap gives every built-in persona its own accent.
var AgentColorMap = map[string]lipgloss.Color{
	"better-call-saul":    lipgloss.Color("#FBBF24"), // Amber
	"sheldon-gpt":         lipgloss.Color("#22D3EE"), // Cyan
	"wolf-of-wall-street": lipgloss.Color("#34D399"), // Emerald
	"jarvis":              lipgloss.Color("#60A5FA"), // Blue
	"q":                   lipgloss.Color("#A78BFA"), // Purple
}

// GetAgentColor returns the accent for an agent id
func GetAgentColor(agentID string) lipgloss.Color {
	if c, ok := AgentColorMap[agentID]; ok {
		return c
	}
	return CurrentTheme.Primary
}

// ModeColor maps the bottom bar badge text to its color.
func ModeColor(badge string) lipgloss.Color {
	switch badge {
	case "LIVE":
		return CurrentTheme.ModeLive
	case "MOCK":
		return CurrentTheme.ModeMock
	default:
		return CurrentTheme.ModeNoKey
	}
}

// InitTheme sets the current theme based on terminal background
func InitTheme() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}
