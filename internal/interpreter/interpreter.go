// Package interpreter maps a validated action record onto Device Driver
// calls (C3 in the core design), enforcing sensitive-operation
// confirmations and takeover handoffs along the way.
package interpreter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/phonessh/pilot/internal/action"
	"github.com/phonessh/pilot/internal/device"
	"github.com/phonessh/pilot/internal/logger"
)

// UserCancelledMessage is the Result.Message a sensitive action carries
// when its confirmation callback declines it.
const UserCancelledMessage = "User cancelled sensitive operation"

// Result is the outcome of executing one action record.
type Result struct {
	Success              bool
	ShouldFinish         bool
	Message              string
	RequiresConfirmation bool
}

// ConfirmFunc gates a sensitive action (one carrying a message). Returning
// false cancels the action and ends the task.
type ConfirmFunc func(message string) bool

// TakeoverFunc hands control to a human operator and blocks until they
// signal the device is ready to continue.
type TakeoverFunc func(message string)

// Handler executes action records against a single Driver.
type Handler struct {
	driver   device.Driver
	timing   TimingConfig
	confirm  ConfirmFunc
	takeover TakeoverFunc
}

// NewHandler builds a Handler. A nil confirm or takeover uses the console
// default (a blocking stdin prompt).
func NewHandler(drv device.Driver, timing TimingConfig, confirm ConfirmFunc, takeover TakeoverFunc) *Handler {
	if confirm == nil {
		confirm = defaultConfirm
	}
	if takeover == nil {
		takeover = defaultTakeover
	}
	return &Handler{driver: drv, timing: timing, confirm: confirm, takeover: takeover}
}

// Execute dispatches rec against the current screen dimensions. It never
// panics out to the caller: any internal failure is reported as
// Result{Success: false}.
func (h *Handler) Execute(ctx context.Context, rec action.Record, width, height int) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Message: fmt.Sprintf("action failed: %v", r)}
		}
	}()

	if rec.Metadata == action.MetaFinish {
		return Result{Success: true, ShouldFinish: true, Message: rec.Message}
	}
	if rec.Metadata != action.MetaDo {
		return Result{Success: false, ShouldFinish: true, Message: fmt.Sprintf("Unknown action type: %s", rec.Metadata)}
	}
	if !action.IsKnownKind(rec.Action) {
		return Result{Success: false, ShouldFinish: false, Message: fmt.Sprintf("Unknown action: %s", rec.Action)}
	}

	switch rec.Action {
	case action.Launch:
		return h.handleLaunch(ctx, rec)
	case action.Tap:
		return h.handleTap(ctx, rec, width, height, h.driver.Tap)
	case action.DoubleTap:
		return h.handleTap(ctx, rec, width, height, h.driver.DoubleTap)
	case action.LongPress:
		return h.handleTap(ctx, rec, width, height, func(ctx context.Context, x, y int) error {
			return h.driver.LongPress(ctx, x, y, int(h.timing.LongPressDuration/time.Millisecond))
		})
	case action.Swipe:
		return h.handleSwipe(ctx, rec, width, height)
	case action.Type, action.TypeName:
		return h.handleType(ctx, rec.Text)
	case action.Back:
		return wrapErr(h.driver.Back(ctx))
	case action.Home:
		return wrapErr(h.driver.Home(ctx))
	case action.Wait:
		time.Sleep(parseWaitDuration(rec.Duration))
		return Result{Success: true}
	case action.TakeOver:
		msg := rec.Message
		if msg == "" {
			msg = "User intervention required"
		}
		h.takeover(msg)
		return Result{Success: true}
	case action.Note, action.CallAPI:
		return Result{Success: true}
	case action.Interact:
		return Result{Success: true, Message: "User interaction required"}
	default:
		return Result{Success: false, Message: fmt.Sprintf("Unknown action: %s", rec.Action)}
	}
}

func (h *Handler) handleLaunch(ctx context.Context, rec action.Record) Result {
	if rec.App == "" {
		return Result{Success: false, Message: "No app name specified"}
	}
	ok, err := h.driver.LaunchApp(ctx, rec.App)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	if !ok {
		return Result{Success: false, Message: fmt.Sprintf("App not found: %s", rec.App)}
	}
	return Result{Success: true}
}

type tapFunc func(ctx context.Context, x, y int) error

func (h *Handler) handleTap(ctx context.Context, rec action.Record, width, height int, do tapFunc) Result {
	if rec.Element == nil {
		return Result{Success: false, Message: "No element coordinates"}
	}
	if rec.Message != "" {
		if !h.confirm(rec.Message) {
			return Result{Success: false, ShouldFinish: true, Message: UserCancelledMessage}
		}
	}
	x := device.ScaleCoordinate(rec.Element.X, width)
	y := device.ScaleCoordinate(rec.Element.Y, height)
	return wrapErr(do(ctx, x, y))
}

func (h *Handler) handleSwipe(ctx context.Context, rec action.Record, width, height int) Result {
	if rec.Start == nil || rec.End == nil {
		return Result{Success: false, Message: "Missing swipe coordinates"}
	}
	x1 := device.ScaleCoordinate(rec.Start.X, width)
	y1 := device.ScaleCoordinate(rec.Start.Y, height)
	x2 := device.ScaleCoordinate(rec.End.X, width)
	y2 := device.ScaleCoordinate(rec.End.Y, height)
	durMS := int(h.timing.SwipeDuration / time.Millisecond)
	return wrapErr(h.driver.Swipe(ctx, x1, y1, x2, y2, durMS))
}

// handleType swaps in the custom keyboard, clears the field, types, and
// restores the original keyboard. The restore always runs, even if an
// earlier step in the sequence failed.
func (h *Handler) handleType(ctx context.Context, text string) Result {
	prevIME, err := h.driver.DetectAndSetADBKeyboard(ctx)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	defer func() {
		time.Sleep(h.timing.KeyboardRestoreDelay)
		if rerr := h.driver.RestoreKeyboard(ctx, prevIME); rerr != nil {
			logger.WarnF("interpreter", "failed to restore keyboard", map[string]any{"error": rerr.Error()})
		}
	}()
	time.Sleep(h.timing.KeyboardSwitchDelay)

	if err := h.driver.ClearText(ctx); err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	time.Sleep(h.timing.TextClearDelay)

	if err := h.driver.TypeText(ctx, text); err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	time.Sleep(h.timing.TextInputDelay)

	return Result{Success: true}
}

func wrapErr(err error) Result {
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	return Result{Success: true}
}

// parseWaitDuration parses a "<float> seconds" string, falling back to one
// second on any parse failure.
func parseWaitDuration(s string) time.Duration {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "seconds", ""))
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "second", ""))
	secs, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		secs = 1.0
	}
	return time.Duration(secs * float64(time.Second))
}

func defaultConfirm(message string) bool {
	rl, err := readline.New(fmt.Sprintf("Sensitive operation: %s\nConfirm? (Y/N): ", message))
	if err != nil {
		return false
	}
	defer rl.Close()
	line, err := rl.Readline()
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "Y")
}

func defaultTakeover(message string) {
	rl, err := readline.New(fmt.Sprintf("%s\nPress Enter after completing manual operation...", message))
	if err != nil {
		return
	}
	defer rl.Close()
	rl.Readline()
}
