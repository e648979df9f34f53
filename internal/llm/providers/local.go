// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string
	Content string
}

// Provider generates narrative text for decoded specs. Implementations must
// be safe for concurrent use.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// LocalProvider is the deterministic fallback used when no API key is
// configured. It produces a structural digest of the rendered event rules
// rather than real prose, which keeps the explain endpoint usable offline.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	lines := strings.Split(last, "\n")
	var calls, tables, branches int
	for _, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimLeft(line, "\t|  "))
		switch {
		case strings.Contains(trimmed, "("):
			calls++
		case strings.Contains(trimmed, "."):
			tables++
		case strings.HasPrefix(trimmed, "If "), strings.HasPrefix(trimmed, "While "):
			branches++
		}
	}
	return fmt.Sprintf(
		"Structural digest: %d lines, %d function calls, %d table operations, %d branch points.",
		len(lines), calls, tables, branches), nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
