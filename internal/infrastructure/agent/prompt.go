package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dealscout/backend/internal/domain"
)

// systemPrompt renders the agent persona
func systemPrompt(task domain.AgentTask) string {
	var b strings.Builder
	if task.Role != "" {
		fmt.Fprintf(&b, "You are a %s.\n", task.Role)
	}
	if task.Goal != "" {
		fmt.Fprintf(&b, "Your goal: %s\n", task.Goal)
	}
	if task.Backstory != "" {
		b.WriteString(strings.TrimSpace(task.Backstory))
		b.WriteString("\n")
	}
	b.WriteString("Respond with JSON only. Do not wrap the answer in prose.")
	return b.String()
}

// userPrompt renders the task description, expected output and context data
func userPrompt(task domain.AgentTask) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(task.Description))

	if task.ExpectedOutput != "" {
		b.WriteString("\n\nExpected output:\n")
		b.WriteString(strings.TrimSpace(task.ExpectedOutput))
	}

	if task.Context != nil {
		data, err := json.MarshalIndent(task.Context, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode task context: %w", err)
		}
		b.WriteString("\n\nInput data:\n")
		b.Write(data)
	}

	return b.String(), nil
}
