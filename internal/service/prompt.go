package service

import (
	"fmt"
	"strings"

	"personachat/internal/models"
)

const followUpPrompt = "Based on the conversation history, generate 3 relevant follow-up questions that the user might want to ask next. " +
	"Make them concise and directly related to the conversation context. " +
	"Answer with a numbered list, one question per line."

const followUpTemperature = 0.7

// SystemPrompt describes agent to the model.
func SystemPrompt(agent models.Agent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s. %s", agent.Name, agent.Role, agent.Description)
	if agent.TVReference != "" {
		fmt.Fprintf(&b, " Your character is based on %s.", agent.TVReference)
	}
	b.WriteString("\n\n")
	if agent.Tagline != "" {
		fmt.Fprintf(&b, "Your tagline is: %q\n\n", agent.Tagline)
	}
	b.WriteString("Respond in a way that reflects your character's personality and expertise.")

	var tools []string
	for _, t := range agent.Tools {
		if t.Enabled {
			tools = append(tools, fmt.Sprintf("%s (%s)", t.Name, t.Description))
		}
	}
	if len(tools) > 0 {
		fmt.Fprintf(&b, " You have access to the following tools: %s.", strings.Join(tools, ", "))
	}

	var caps []string
	for _, c := range agent.Capabilities {
		if c.Enabled {
			caps = append(caps, c.Name)
		}
	}
	if len(caps) > 0 {
		fmt.Fprintf(&b, " Your capabilities include: %s.", strings.Join(caps, ", "))
	}
	b.WriteString("\n\n")

	if len(agent.KnowledgeSources) > 0 {
		fmt.Fprintf(&b, "Your knowledge sources include: %s.\n", strings.Join(agent.KnowledgeSources, ", "))
	}
	if agent.WebAccess {
		b.WriteString("You have access to the web for retrieving information.\n")
	} else {
		b.WriteString("You do not have web access.\n")
	}
	b.WriteString("\nAlways stay in character and provide helpful, accurate information to the user.")
	return b.String()
}
