package tool

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"codegateway/internal/memorystore"
)

func TestCheckOnboardingPerformedTracksMemories(t *testing.T) {
	store, err := memorystore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r := NewRegistry()
	if err := RegisterWorkflowTools(r, store); err != nil {
		t.Fatalf("RegisterWorkflowTools: %v", err)
	}

	res := callHandler(t, r, "check_onboarding_performed", map[string]any{})
	var data struct {
		OnboardingPerformed bool `json:"onboarding_performed"`
	}
	_ = json.Unmarshal(res.Data, &data)
	if data.OnboardingPerformed {
		t.Fatalf("expected onboarding_performed=false before any memory is written")
	}

	_, _ = store.Write("suggested_commands", "go test ./...")

	res = callHandler(t, r, "check_onboarding_performed", map[string]any{})
	_ = json.Unmarshal(res.Data, &data)
	if !data.OnboardingPerformed {
		t.Fatalf("expected onboarding_performed=true after a memory is written")
	}
}

func TestOnboardingPromptMentionsSystem(t *testing.T) {
	r := NewRegistry()
	store, _ := memorystore.Open(t.TempDir())
	_ = RegisterWorkflowTools(r, store)

	res := callHandler(t, r, "onboarding", map[string]any{})
	var data struct {
		Prompt string `json:"prompt"`
	}
	_ = json.Unmarshal(res.Data, &data)
	if data.Prompt == "" {
		t.Fatalf("expected non-empty onboarding prompt")
	}
	if !strings.Contains(data.Prompt, runtime.GOOS) {
		t.Fatalf("expected onboarding prompt to mention the system %q", runtime.GOOS)
	}
}
