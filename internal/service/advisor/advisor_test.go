package advisor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cropcareai/backend/internal/model/chat"
	"github.com/cropcareai/backend/internal/render"
)

func TestFallbackTreatment(t *testing.T) {
	text := FallbackTreatment("Tomato_Early_blight")

	if !strings.Contains(text, "# Treatment Recommendations for Tomato Early blight") {
		t.Fatalf("fallback lost the disease name: %q", text)
	}
	for _, section := range []string{"## Description", "## Symptoms", "## Treatment", "## Prevention"} {
		if !strings.Contains(text, section) {
			t.Fatalf("fallback missing section %q", section)
		}
	}

	// The fallback must stay inside the renderer's markdown subset.
	html := render.Fragment(text)
	if !strings.Contains(html, "<h1>Treatment Recommendations for Tomato Early blight</h1>") {
		t.Fatalf("fallback heading did not render: %q", html)
	}
	if strings.Count(html, "<h2>") != 4 {
		t.Fatalf("expected 4 section headings, got %d", strings.Count(html, "<h2>"))
	}
	if !strings.Contains(html, "<em>Note:") {
		t.Fatalf("closing note did not render as italic: %q", html)
	}
	if strings.Contains(html, "**") {
		t.Fatalf("unconsumed markers in rendered fallback: %q", html)
	}
}

func TestTreatmentPrompt(t *testing.T) {
	p := treatmentPrompt("Grape Black rot")
	if !strings.Contains(p, "Grape Black rot") {
		t.Fatalf("prompt missing disease: %q", p)
	}
	if !strings.Contains(p, "Prevention tips") {
		t.Fatalf("prompt missing structure: %q", p)
	}
}

func TestAssistantSystemPromptDiseaseContext(t *testing.T) {
	base := assistantSystemPrompt("")
	if strings.Contains(base, "diagnosed with") {
		t.Fatalf("context leaked into base prompt: %q", base)
	}

	withCtx := assistantSystemPrompt("Potato_Late_blight")
	if !strings.Contains(withCtx, "Potato Late blight") {
		t.Fatalf("diagnosis missing from prompt: %q", withCtx)
	}
}

func TestBuildHistoryMessagesWindow(t *testing.T) {
	var history []chat.Message
	for i := 0; i < 14; i++ {
		sender := chat.SenderUser
		if i%2 == 1 {
			sender = chat.SenderBot
		}
		history = append(history, chat.Message{Sender: sender, Content: fmt.Sprintf("turn %d", i)})
	}

	built := buildHistoryMessages(history)
	if len(built) != 10 {
		t.Fatalf("history window = %d, want 10", len(built))
	}
	// The oldest surviving turn is number 4.
	if built[0].Content != "turn 4" {
		t.Fatalf("window starts at %q, want %q", built[0].Content, "turn 4")
	}

	if got := buildHistoryMessages(nil); got != nil {
		t.Fatalf("empty history built %d messages", len(got))
	}
}
