package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonessh/pilot/internal/device"
	"github.com/phonessh/pilot/internal/interpreter"
	"github.com/phonessh/pilot/internal/modelclient"
)

// fakeDriver is a minimal device.Driver double: every screenshot is the
// same fixed payload (so hash-based unchanged-screen tracking is
// exercised deterministically), and every mutating call is recorded.
type fakeDriver struct {
	base64PNG string
	width     int
	height    int

	taps        [][2]int
	launched    string
	backCalled  int
	homeCalled  int
	screenshots int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{base64PNG: "AAAA", width: 1080, height: 2400}
}

func (f *fakeDriver) Screenshot(ctx context.Context) (device.Screenshot, error) {
	f.screenshots++
	return device.Screenshot{Width: f.width, Height: f.height, Base64PNG: f.base64PNG}, nil
}
func (f *fakeDriver) CurrentApp(ctx context.Context) (string, error) { return "", nil }
func (f *fakeDriver) Tap(ctx context.Context, x, y int) error {
	f.taps = append(f.taps, [2]int{x, y})
	return nil
}
func (f *fakeDriver) DoubleTap(ctx context.Context, x, y int) error { return f.Tap(ctx, x, y) }
func (f *fakeDriver) LongPress(ctx context.Context, x, y int, durationMS int) error {
	return f.Tap(ctx, x, y)
}
func (f *fakeDriver) Swipe(ctx context.Context, x1, y1, x2, y2 int, durationMS int) error { return nil }
func (f *fakeDriver) Back(ctx context.Context) error                                     { f.backCalled++; return nil }
func (f *fakeDriver) Home(ctx context.Context) error                                     { f.homeCalled++; return nil }
func (f *fakeDriver) SendKey(ctx context.Context, code device.KeyCode) error              { return nil }
func (f *fakeDriver) TypeText(ctx context.Context, text string) error                     { return nil }
func (f *fakeDriver) ClearText(ctx context.Context) error                                 { return nil }
func (f *fakeDriver) DetectAndSetADBKeyboard(ctx context.Context) (string, error)         { return "", nil }
func (f *fakeDriver) RestoreKeyboard(ctx context.Context, imeID string) error             { return nil }
func (f *fakeDriver) LaunchApp(ctx context.Context, label string) (bool, error) {
	f.launched = label
	return true, nil
}
func (f *fakeDriver) DeviceID() string { return "test-device" }

// scriptedModelServer replies with the given raw message contents in
// order, repeating the last one once exhausted.
func scriptedModelServer(t *testing.T, replies []string) *httptest.Server {
	t.Helper()
	var calls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(atomic.AddInt32(&calls, 1)) - 1
		if i >= len(replies) {
			i = len(replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, replies[i])
	}))
}

func newTestHandler(drv device.Driver, confirm interpreter.ConfirmFunc, takeover interpreter.TakeoverFunc) *interpreter.Handler {
	timing := interpreter.TimingConfig{}
	return interpreter.NewHandler(drv, timing, confirm, takeover)
}

func TestAgentRunLaunchThenFinish(t *testing.T) {
	srv := scriptedModelServer(t, []string{
		`<think>open it</think><answer>do(action="Launch", app="设置")</answer>`,
		`<think>done</think><answer>finish(message="opened settings")</answer>`,
	})
	defer srv.Close()

	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5, UseThirdPartyPrompt: false}, drv, model, handler)

	msg := a.Run(context.Background(), "open settings")
	assert.Equal(t, "opened settings", msg)
	assert.Equal(t, "设置", drv.launched)
	assert.Equal(t, 2, a.StepCount())
}

func TestAgentConfirmationVetoEndsTask(t *testing.T) {
	srv := scriptedModelServer(t, []string{
		`<think>pay</think><answer>do(action="Tap", element=[300,600], message="confirm payment")</answer>`,
	})
	defer srv.Close()

	drv := newFakeDriver()
	confirmed := false
	confirm := func(message string) bool {
		confirmed = true
		return false
	}
	handler := newTestHandler(drv, confirm, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5}, drv, model, handler)

	msg := a.Run(context.Background(), "pay the bill")
	assert.True(t, confirmed, "confirmation callback was never invoked")
	assert.Equal(t, "User cancelled sensitive operation", msg)
	assert.Empty(t, drv.taps, "tap should not have executed after veto")
}

func TestAgentConfirmationVetoReportsUserCancelError(t *testing.T) {
	srv := scriptedModelServer(t, []string{
		`do(action="Tap", element=[300,600], message="confirm payment")`,
	})
	defer srv.Close()

	drv := newFakeDriver()
	confirm := func(message string) bool { return false }
	handler := newTestHandler(drv, confirm, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5}, drv, model, handler)

	result, err := a.Step(context.Background(), "pay the bill")
	require.NoError(t, err)
	require.Error(t, result.Err)
	var cancelErr *UserCancelError
	assert.ErrorAs(t, result.Err, &cancelErr)
}

func TestAgentThirdPartyParseRetryOnce(t *testing.T) {
	srv := scriptedModelServer(t, []string{
		"this is not a parseable action at all",
		`do(action="Home")`,
	})
	defer srv.Close()

	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5, UseThirdPartyPrompt: true, ThirdPartyThinking: false}, drv, model, handler)

	result, err := a.Step(context.Background(), "go home")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Finished)
	assert.Equal(t, 1, drv.homeCalled)
}

func TestAgentNativeModeTerminatesOnFirstParseFailure(t *testing.T) {
	srv := scriptedModelServer(t, []string{"garbage reply with no action call"})
	defer srv.Close()

	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5, UseThirdPartyPrompt: false}, drv, model, handler)

	result, err := a.Step(context.Background(), "do something")
	require.NoError(t, err)
	assert.True(t, result.Finished, "native mode should terminate immediately on a parse failure")
}

func TestAgentBudgetExhaustion(t *testing.T) {
	srv := scriptedModelServer(t, []string{`do(action="Tap", element=[100,100])`})
	defer srv.Close()

	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 3, UseThirdPartyPrompt: false}, drv, model, handler)

	msg := a.Run(context.Background(), "tap forever")
	assert.Equal(t, (&BudgetError{MaxSteps: 3}).Error(), msg)
	assert.Equal(t, 3, drv.screenshots)

	result, err := a.Step(context.Background(), "")
	require.NoError(t, err)
	var budgetErr *BudgetError
	assert.ErrorAs(t, result.Err, &budgetErr)
}

func TestAgentLoopDetectionTriggersTakeover(t *testing.T) {
	srv := scriptedModelServer(t, []string{`do(action="Tap", element=[100,100])`})
	defer srv.Close()

	drv := newFakeDriver()
	var takeoverCalls int
	takeover := func(message string) { takeoverCalls++ }
	handler := newTestHandler(drv, nil, takeover)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 10, UseThirdPartyPrompt: true, ThirdPartyThinking: false}, drv, model, handler)

	a.Run(context.Background(), "tap the same spot repeatedly")

	assert.Greater(t, takeoverCalls, 0, "expected a stuck-override takeover to fire within %d steps", a.cfg.MaxSteps)
}

func TestAgentResetClearsState(t *testing.T) {
	srv := scriptedModelServer(t, []string{`finish(message="done")`})
	defer srv.Close()

	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"})
	a := New(Config{MaxSteps: 5}, drv, model, handler)

	a.Run(context.Background(), "do a thing")
	require.NotZero(t, a.StepCount())

	a.Reset()
	assert.Zero(t, a.StepCount())
	assert.Empty(t, a.Context())
}

func TestAgentStepRequiresTaskOnFirstCall(t *testing.T) {
	drv := newFakeDriver()
	handler := newTestHandler(drv, nil, nil)
	model := modelclient.New(modelclient.Config{BaseURL: "http://localhost:0", Model: "test"})
	a := New(Config{MaxSteps: 5}, drv, model, handler)

	_, err := a.Step(context.Background(), "")
	assert.Error(t, err)
}

func TestLooksLikeLoopDetectsIdenticalAndAlternating(t *testing.T) {
	identical := []string{"Tap:[1,1]", "Tap:[1,1]", "Tap:[1,1]", "Tap:[1,1]", "Tap:[1,1]", "Tap:[1,1]"}
	assert.True(t, looksLikeLoop(identical))

	alternating := []string{"Tap:[1,1]", "Back", "Tap:[1,1]", "Back", "Tap:[1,1]", "Back"}
	assert.True(t, looksLikeLoop(alternating))

	varied := []string{"Tap:[1,1]", "Back", "Home", "Tap:[2,2]", "Back", "Wait:1"}
	assert.False(t, looksLikeLoop(varied))

	assert.False(t, looksLikeLoop([]string{"Tap:[1,1]", "Tap:[1,1]"}))
}
