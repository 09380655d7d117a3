// Package prompt assembles the system/user text sent to the model (C5 in
// the core design), for both native and "third-party" model modes,
// including stuck-recovery hints from the loop detector.
package prompt

import (
	"fmt"
	"strings"

	"github.com/phonessh/pilot/internal/modelclient"
)

// Lang selects the native-mode prompt language.
type Lang string

const (
	LangCN Lang = "cn"
	LangEN Lang = "en"
)

// Mode selects between native and third-party prompt shapes.
type Mode int

const (
	// ModeNative sends the full grammar as a system message.
	ModeNative Mode = iota
	// ModeThirdParty embeds a compact grammar into the user message, since
	// some gateways reject the system role.
	ModeThirdParty
)

// Options configures one call to Build.
type Options struct {
	Mode Mode
	Lang Lang
	// Thinking selects the XML-tagged <think>/<answer> variant in
	// third-party mode. Ignored in native mode (which always wraps the
	// reply in <think>/<answer> tags).
	Thinking bool

	Task string
	// FirstStep is true only for the very first step of a task; it gates
	// whether the system/task message is (re-)sent.
	FirstStep bool

	// History holds recent action signatures (most recent last), used in
	// third-party mode from the second step onward.
	History []string
	// StuckHint, when non-empty, is appended to the user message asking
	// the model to try something different.
	StuckHint string

	ScreenWidth  int
	ScreenHeight int
	ImageBase64  string
}

// Build assembles the messages to send for one step. Native mode returns
// a leading system message only on the first step of a task; third-party
// mode never emits a system message and instead folds the grammar into
// the first user message.
func Build(opts Options) []modelclient.Message {
	var messages []modelclient.Message

	switch opts.Mode {
	case ModeNative:
		if opts.FirstStep {
			messages = append(messages, modelclient.Message{Role: "system", Content: nativeSystemPrompt(opts.Lang)})
		}
		messages = append(messages, modelclient.Message{
			Role:    "user",
			Content: nativeUserContent(opts),
		})
	case ModeThirdParty:
		messages = append(messages, modelclient.Message{
			Role:    "user",
			Content: thirdPartyUserContent(opts),
		})
	}
	return messages
}

func nativeUserContent(opts Options) []modelclient.ContentPart {
	var b strings.Builder
	if opts.FirstStep {
		fmt.Fprintf(&b, "Task: %s\n\n", opts.Task)
	}
	b.WriteString("Screen Info: current screenshot attached.\n")
	if opts.StuckHint != "" {
		b.WriteString(opts.StuckHint)
		b.WriteString("\n")
	}
	return []modelclient.ContentPart{
		{Type: "text", Text: b.String()},
		{Type: "image_url", ImageURL: dataURL(opts.ImageBase64)},
	}
}

// thirdPartyUserContent folds the grammar into the first step's user
// message only; later steps rely on it already being in context and just
// restate the screen info, recent-action history, and any stuck hint.
func thirdPartyUserContent(opts Options) []modelclient.ContentPart {
	var b strings.Builder
	if opts.FirstStep {
		b.WriteString(thirdPartySystemPrompt(opts.Thinking))
		b.WriteString("\n\n---\n")
		fmt.Fprintf(&b, "Task: %s\n\n", opts.Task)
	} else {
		b.WriteString("Continue the task. ")
	}
	b.WriteString("Screen Info: current screenshot attached.")

	if len(opts.History) > 0 {
		b.WriteString("\n\nRecent actions:\n")
		for i, sig := range opts.History {
			fmt.Fprintf(&b, "Step %d: %s\n", i+1, sig)
		}
	}
	if opts.StuckHint != "" {
		b.WriteString("\n\n")
		b.WriteString(opts.StuckHint)
	}
	if !opts.FirstStep {
		b.WriteString("\n\nOutput the next action now.")
	}

	return []modelclient.ContentPart{
		{Type: "text", Text: b.String()},
		{Type: "image_url", ImageURL: dataURL(opts.ImageBase64)},
	}
}

func dataURL(base64PNG string) string {
	return "data:image/png;base64," + base64PNG
}

// StuckHint builds the recovery-hint paragraph shown to the model once
// the loop detector has flagged trouble (spec §4.6/§4.9).
func StuckHint(lang Lang) string {
	if lang == LangCN {
		return "提示：当前屏幕长时间未变化，或最近的操作似乎在重复。请尝试不同的操作，例如滑动、返回，或确认是否需要人工接管 (Take_over)。"
	}
	return "Hint: the screen hasn't changed for a while, or recent actions look repetitive. Try a different action — swipe, go back, or request a human takeover (Take_over) if the app seems stuck."
}

// ReparseRequest builds the in-band "please re-output a parseable action"
// message the loop sends after a parse failure in third-party mode.
func ReparseRequest(lang Lang) string {
	if lang == LangCN {
		return "你上一条回复无法被解析为一个有效的动作指令。请严格按照格式只输出一个 do(...) 或 finish(...) 调用，不要添加任何解释。"
	}
	return "Your previous reply could not be parsed as a valid action. Output exactly one do(...) or finish(...) call in the required format, with no extra explanation."
}
