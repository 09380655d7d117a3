package prompt

import (
	"strings"
	"testing"

	"github.com/phonessh/pilot/internal/modelclient"
)

func TestBuildNativeFirstStepIncludesSystemMessage(t *testing.T) {
	msgs := Build(Options{
		Mode: ModeNative, Lang: LangEN, FirstStep: true,
		Task: "open settings", ImageBase64: "AAAA",
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Fatalf("expected first message to be system role, got %q", msgs[0].Role)
	}
	if msgs[1].Role != "user" {
		t.Fatalf("expected second message to be user role, got %q", msgs[1].Role)
	}
}

func TestBuildNativeLaterStepOmitsSystemMessage(t *testing.T) {
	msgs := Build(Options{Mode: ModeNative, Lang: LangEN, FirstStep: false, ImageBase64: "AAAA"})
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", msgs)
	}
}

func TestBuildThirdPartyNeverEmitsSystemMessage(t *testing.T) {
	msgs := Build(Options{Mode: ModeThirdParty, Task: "open wechat", FirstStep: true, ImageBase64: "AAAA"})
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", msgs)
	}
	parts, ok := msgs[0].Content.([]modelclient.ContentPart)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %+v", msgs[0].Content)
	}
	if !strings.Contains(parts[0].Text, "do(action=") {
		t.Fatalf("expected action grammar embedded in user text")
	}
}

func TestBuildThirdPartyIncludesHistoryAndStuckHint(t *testing.T) {
	msgs := Build(Options{
		Mode: ModeThirdParty, Task: "scroll feed",
		History:   []string{"Tap:[100,200]", "Tap:[100,200]"},
		StuckHint: StuckHint(LangEN),
	})
	parts := msgs[0].Content.([]modelclient.ContentPart)
	if !strings.Contains(parts[0].Text, "Tap:[100,200]") {
		t.Fatalf("expected history in prompt text: %s", parts[0].Text)
	}
	if !strings.Contains(parts[0].Text, "Try a different action") {
		t.Fatalf("expected stuck hint in prompt text: %s", parts[0].Text)
	}
}

func TestDataURLFormat(t *testing.T) {
	if got := dataURL("AAAA"); got != "data:image/png;base64,AAAA" {
		t.Fatalf("got %q", got)
	}
}
