// File path: internal/llm/llm_test.go
package llm

import "testing"

func TestNewProviderFallsBackToLocal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	provider := NewProvider()
	if provider.Name() != "local" {
		t.Fatalf("expected local fallback, got %q", provider.Name())
	}
}

func TestNormalizeMessages(t *testing.T) {
	messages, err := NormalizeMessages([]Message{{Role: "USER", Content: "hi"}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if messages[0].Role != "user" {
		t.Fatalf("role not lowercased: %q", messages[0].Role)
	}

	if _, err := NormalizeMessages(nil); err == nil {
		t.Fatalf("expected error for empty conversation")
	}
}
