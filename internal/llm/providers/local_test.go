// File path: internal/llm/providers/local_test.go
package providers

import (
	"context"
	"strings"
	"testing"
)

func TestLocalProviderDigest(t *testing.T) {
	provider := NewLocalProvider()
	if provider.Name() != "local" {
		t.Fatalf("unexpected provider name %q", provider.Name())
	}

	listing := strings.Join([]string{
		"If AddressNumber is greater than Zero",
		"\tMyFunc(B0001.MyFunc)",
		"\t|   BF Field1 [AL1] <- Field1 [AL1]",
		"\tF0101.FetchSingle Index 1",
		"End If",
	}, "\n")
	out, err := provider.Chat(context.Background(), []Message{
		{Role: "system", Content: "summarize"},
		{Role: "user", Content: listing},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.HasPrefix(out, "Structural digest: 5 lines") {
		t.Fatalf("unexpected digest %q", out)
	}
}

func TestLocalProviderRejectsEmptyConversation(t *testing.T) {
	if _, err := NewLocalProvider().Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty conversation")
	}
}
