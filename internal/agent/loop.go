// Package agent drives the perception-decision-actuation loop (C6 in the
// core design): it takes a screenshot, asks the model for the next
// action, parses and executes it, and repeats until the task finishes or
// the step budget runs out. It also owns loop/stuck detection, which
// feeds a recovery hint back into the next prompt and, in third-party
// mode, can bypass the model entirely to force a human takeover.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/phonessh/pilot/internal/action"
	"github.com/phonessh/pilot/internal/device"
	"github.com/phonessh/pilot/internal/interpreter"
	"github.com/phonessh/pilot/internal/logger"
	"github.com/phonessh/pilot/internal/modelclient"
	"github.com/phonessh/pilot/internal/prompt"
)

// ringCapacity bounds how many recent action signatures are kept for loop
// detection; only the last 6 are ever inspected, the extra headroom is
// for future history display.
const ringCapacity = 12

// Config configures one Agent. Zero-value Lang/MaxSteps are replaced by
// DefaultConfig's values on New.
type Config struct {
	MaxSteps            int
	Lang                prompt.Lang
	UseThirdPartyPrompt bool
	// ThirdPartyThinking wraps the reply in <think>/<answer> tags in
	// third-party mode. Native mode always does this regardless.
	ThirdPartyThinking bool
}

// DefaultConfig mirrors the defaults a fresh task starts with.
func DefaultConfig() Config {
	return Config{
		MaxSteps:            100,
		Lang:                prompt.LangCN,
		UseThirdPartyPrompt: false,
		ThirdPartyThinking:  true,
	}
}

// StepResult is returned by one call to Step (or, internally, one
// iteration of Run).
type StepResult struct {
	Success  bool
	Finished bool
	Action   *action.Record
	Thinking string
	Message  string
	// Err is set to one of the taxonomy errors (DeviceError, ModelError,
	// ParseError, UserCancelError, BudgetError) whenever Finished is true
	// because of a failure rather than a clean finish() action.
	Err error
}

// Agent wires C1 (device), C3 (interpreter), C4 (model client) and C5
// (prompt assembly) into the stateful loop described by C6.
type Agent struct {
	cfg Config

	driver  device.Driver
	model   *modelclient.Client
	handler *interpreter.Handler

	ctx Context

	stepCount            int
	lastScreenHash       string
	screenUnchangedSteps int
	recentSignatures     []string
	stuckWarnings        int
	pendingStuckHint     bool

	// sessionID correlates every log line emitted across one task's steps;
	// it is regenerated on each Reset, same lifetime as the conversation.
	sessionID string
}

// New builds an Agent. cfg.MaxSteps <= 0 falls back to DefaultConfig's
// value.
func New(cfg Config, drv device.Driver, model *modelclient.Client, handler *interpreter.Handler) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultConfig().Lang
	}
	return &Agent{cfg: cfg, driver: drv, model: model, handler: handler, sessionID: uuid.NewString()}
}

// Reset clears all per-task state so the Agent can be reused for a new
// task.
func (a *Agent) Reset() {
	a.ctx = Context{}
	a.stepCount = 0
	a.lastScreenHash = ""
	a.screenUnchangedSteps = 0
	a.recentSignatures = nil
	a.stuckWarnings = 0
	a.pendingStuckHint = false
	a.sessionID = uuid.NewString()
}

// Context returns the accumulated conversation, for callers that want to
// inspect or persist it.
func (a *Agent) Context() []modelclient.Message { return a.ctx.Messages }

// StepCount returns how many steps have run since the last Reset.
func (a *Agent) StepCount() int { return a.stepCount }

// Run resets the Agent and drives it to completion, returning the
// terminal message. It never returns an error: every failure mode
// (device, model, parse, budget) surfaces as a finishing message, the
// same way a human reading the transcript would see it.
func (a *Agent) Run(ctx context.Context, task string) string {
	a.Reset()
	result := a.executeStep(ctx, task, true)
	if result.Finished {
		return nonEmpty(result.Message, "Task completed")
	}
	for a.stepCount < a.cfg.MaxSteps {
		result = a.executeStep(ctx, "", false)
		if result.Finished {
			return nonEmpty(result.Message, "Task completed")
		}
	}
	return (&BudgetError{MaxSteps: a.cfg.MaxSteps}).Error()
}

// Step runs a single step of the loop. task is required only on the very
// first call after construction or Reset.
func (a *Agent) Step(ctx context.Context, task string) (StepResult, error) {
	isFirst := len(a.ctx.Messages) == 0
	if isFirst && task == "" {
		return StepResult{}, fmt.Errorf("agent: task is required for the first step")
	}
	return a.executeStep(ctx, task, isFirst), nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// executeStep runs one full perception-decision-actuation cycle.
func (a *Agent) executeStep(ctx context.Context, task string, isFirst bool) StepResult {
	a.stepCount++
	if a.stepCount > a.cfg.MaxSteps {
		budgetErr := &BudgetError{MaxSteps: a.cfg.MaxSteps}
		return StepResult{Finished: true, Message: budgetErr.Error(), Err: budgetErr}
	}
	logger.DebugF("agent", "step start", map[string]any{"session": a.sessionID, "step": a.stepCount})

	shot, err := a.driver.Screenshot(ctx)
	if err != nil {
		logger.ErrorF("agent", "screenshot failed", map[string]any{"session": a.sessionID, "step": a.stepCount, "error": err.Error()})
		return StepResult{Finished: true, Message: fmt.Sprintf("Device error: %v", err), Err: err}
	}

	hash := screenHash(shot.Base64PNG)
	if hash == a.lastScreenHash {
		a.screenUnchangedSteps++
	} else {
		a.screenUnchangedSteps = 0
	}
	a.lastScreenHash = hash

	// Stuck-override: bypass the model entirely once the screen has sat
	// still for a while and earlier stuck warnings already fired. Only
	// meaningful in third-party mode, where the model has no built-in
	// awareness of its own history.
	if a.cfg.UseThirdPartyPrompt && a.screenUnchangedSteps >= 6 && a.stuckWarnings >= 2 {
		logger.WarnF("agent", "stuck override, synthesizing Take_over", map[string]any{
			"session": a.sessionID, "step": a.stepCount, "screen_unchanged_steps": a.screenUnchangedSteps,
		})
		rec := action.Record{
			Metadata: action.MetaDo,
			Action:   action.TakeOver,
			Message:  prompt.StuckHint(a.cfg.Lang),
		}
		res := a.handler.Execute(ctx, rec, shot.Width, shot.Height)
		return StepResult{Success: res.Success, Finished: res.ShouldFinish, Action: &rec, Message: res.Message}
	}

	var stuckHint string
	if a.cfg.UseThirdPartyPrompt && a.pendingStuckHint {
		stuckHint = prompt.StuckHint(a.cfg.Lang)
	}
	a.pendingStuckHint = false

	mode := prompt.ModeNative
	if a.cfg.UseThirdPartyPrompt {
		mode = prompt.ModeThirdParty
	}
	opts := prompt.Options{
		Mode: mode, Lang: a.cfg.Lang, Thinking: a.cfg.ThirdPartyThinking,
		Task: task, FirstStep: isFirst,
		History:      lastN(a.recentSignatures, 6),
		StuckHint:    stuckHint,
		ScreenWidth:  shot.Width,
		ScreenHeight: shot.Height,
		ImageBase64:  shot.Base64PNG,
	}
	for _, m := range prompt.Build(opts) {
		a.ctx.Append(m)
	}

	thinking, actionText, err := a.model.Send(ctx, a.ctx.Messages)
	if err != nil {
		logger.ErrorF("agent", "model call failed", map[string]any{"session": a.sessionID, "step": a.stepCount, "error": err.Error()})
		return StepResult{Finished: true, Message: fmt.Sprintf("Model error: %v", err), Err: err}
	}
	a.ctx.StripLastImage()
	a.appendAssistantReply(thinking, actionText)

	rec, parseErr := action.Parse(actionText)
	if parseErr != nil {
		if !a.cfg.UseThirdPartyPrompt {
			return StepResult{Finished: true, Thinking: thinking, Message: fmt.Sprintf("could not parse action: %v", parseErr), Err: parseErr}
		}
		// Third-party mode gets one retry: ask the model to re-output in
		// the required format before giving up.
		a.ctx.Append(modelclient.Message{Role: "user", Content: prompt.ReparseRequest(a.cfg.Lang)})
		retryThinking, retryText, retryErr := a.model.Send(ctx, a.ctx.Messages)
		if retryErr != nil {
			return StepResult{Finished: true, Thinking: thinking, Message: fmt.Sprintf("Model error: %v", retryErr), Err: retryErr}
		}
		a.appendAssistantReply(retryThinking, retryText)
		rec, parseErr = action.Parse(retryText)
		thinking = retryThinking
		if parseErr != nil {
			return StepResult{Finished: true, Thinking: thinking, Message: fmt.Sprintf("could not parse action: %v", parseErr), Err: parseErr}
		}
	}

	sig := rec.Signature()
	a.recentSignatures = pushRing(a.recentSignatures, sig, ringCapacity)
	if a.screenUnchangedSteps >= 2 || looksLikeLoop(a.recentSignatures) {
		a.stuckWarnings++
		a.pendingStuckHint = true
		logger.WarnF("agent", "stuck warning raised", map[string]any{"session": a.sessionID, "step": a.stepCount, "stuck_warnings": a.stuckWarnings})
	}

	res := a.handler.Execute(ctx, rec, shot.Width, shot.Height)
	logger.InfoF("agent", "action executed", map[string]any{
		"session": a.sessionID, "step": a.stepCount, "signature": sig, "success": res.Success,
	})
	finished := rec.Metadata == action.MetaFinish || res.ShouldFinish

	msg := res.Message
	if msg == "" {
		msg = rec.Message
	}
	var resultErr error
	if res.Message == interpreter.UserCancelledMessage {
		resultErr = &UserCancelError{Message: res.Message}
	}
	return StepResult{Success: res.Success, Finished: finished, Action: &rec, Thinking: thinking, Message: msg, Err: resultErr}
}

// appendAssistantReply re-wraps the reply the same way it arrived, so the
// conversation history stays self-consistent for models that key off the
// tag shape of their own prior turns.
func (a *Agent) appendAssistantReply(thinking, actionText string) {
	if !a.cfg.UseThirdPartyPrompt || a.cfg.ThirdPartyThinking {
		content := fmt.Sprintf("<think>%s</think><answer>%s</answer>", thinking, actionText)
		a.ctx.Append(modelclient.Message{Role: "assistant", Content: content})
		return
	}
	a.ctx.Append(modelclient.Message{Role: "assistant", Content: actionText})
}

// looksLikeLoop flags the two repetition shapes spec'd for loop
// detection: the last 6 signatures all identical, or alternating ABABAB.
func looksLikeLoop(sigs []string) bool {
	if len(sigs) < 6 {
		return false
	}
	last6 := sigs[len(sigs)-6:]

	allEqual := true
	for _, s := range last6 {
		if s != last6[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return true
	}

	a, b := last6[0], last6[1]
	if a == b {
		return false
	}
	return last6[2] == a && last6[3] == b && last6[4] == a && last6[5] == b
}

func pushRing(ring []string, sig string, capacity int) []string {
	ring = append(ring, sig)
	if len(ring) > capacity {
		ring = ring[len(ring)-capacity:]
	}
	return ring
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
