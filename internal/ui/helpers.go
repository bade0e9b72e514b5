package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"personachat/internal/models"
	"personachat/internal/styles"
)

var errEmptyCommand = errors.New("empty command, try /help")

// Command is a parsed slash command. Arg is the raw remainder of the line.
type Command struct {
	Name string
	Arg  string
}

func ParseCommand(input string) (Command, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Command{}, fmt.Errorf("not a command: %q", input)
	}
	body := strings.TrimSpace(input[1:])
	if body == "" {
		return Command{}, errEmptyCommand
	}
	name, arg, _ := strings.Cut(body, " ")
	return Command{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}, nil
}

// SplitFirstArg splits off the first word of s. A leading double or single
// quote groups everything up to the matching quote, so paths may hold spaces.
func SplitFirstArg(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(s[1:], q); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
		return s[1:], ""
	}
	first, rest, _ = strings.Cut(s, " ")
	return first, strings.TrimSpace(rest)
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func RelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if d < 24*time.Hour {
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hrs ago", hrs)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func FormatUserMessage(msg models.Message, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU") + styles.TimestampStyle.Render(RelativeTime(msg.Timestamp))
	body := msg.Content.Text()
	if n := msg.Content.ImageCount(); n > 0 {
		tag := styles.ImageTagStyle.Render(fmt.Sprintf("[%d image attached]", n))
		if n > 1 {
			tag = styles.ImageTagStyle.Render(fmt.Sprintf("[%d images attached]", n))
		}
		if body == "" {
			body = tag
		} else {
			body = body + "\n" + tag
		}
	}
	msgWidth := width - 4
	if msgWidth < 10 {
		msgWidth = 10
	}
	rendered := styles.UserMsgStyle.Width(msgWidth).Render(body)
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, rendered)
	}
	return fmt.Sprintf("%s\n%s", label, rendered)
}

func FormatAIMessage(agentName, content string, color lipgloss.Color) string {
	label := styles.AiLabelStyle.Copy().Background(color).Render(agentName)
	msg := styles.AiMsgStyle.Copy().BorderForeground(color).Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}
