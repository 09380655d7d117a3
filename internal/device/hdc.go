package device

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// HDCDriver drives a HarmonyOS device over the host hdc binary, using the
// uitest uiInput surface for input injection. Most key codes match
// Android's input keyevent numbering; the handful that don't (notably
// Enter) are remapped, and anything not covered by uiInput falls back to
// the Android-style `hdc shell input keyevent`.
type HDCDriver struct {
	deviceID string
	timeout  time.Duration
	apps     AppTable
}

func NewHDCDriver(deviceID string, apps AppTable) *HDCDriver {
	return &HDCDriver{deviceID: deviceID, timeout: DefaultSubprocessTimeout, apps: apps}
}

func (d *HDCDriver) DeviceID() string { return d.deviceID }

func (d *HDCDriver) prefix() []string {
	if d.deviceID == "" {
		return []string{"hdc"}
	}
	return []string{"hdc", "-t", d.deviceID}
}

func (d *HDCDriver) run(ctx context.Context, op string, args ...string) (string, error) {
	pre := d.prefix()
	return runShell(ctx, d.timeout, op, d.deviceID, pre[0], append(pre[1:], args...)...)
}

func (d *HDCDriver) runBinary(ctx context.Context, op string, args ...string) ([]byte, error) {
	pre := d.prefix()
	return runShellBinary(ctx, d.timeout, op, d.deviceID, pre[0], append(pre[1:], args...)...)
}

func (d *HDCDriver) Screenshot(ctx context.Context) (Screenshot, error) {
	data, err := d.runBinary(ctx, "screenshot", "shell", "snapshot_display", "-f", "/dev/stdout")
	if err != nil {
		return Screenshot{}, err
	}
	w, h, err := d.screenSize(ctx)
	if err != nil {
		w, h = 0, 0
	}
	return Screenshot{
		Width:      w,
		Height:     h,
		Base64PNG:  base64.StdEncoding.EncodeToString(data),
		CapturedAt: time.Now(),
	}, nil
}

var hdcDisplaySizeRe = regexp.MustCompile(`(\d+)x(\d+)`)

func (d *HDCDriver) screenSize(ctx context.Context) (int, int, error) {
	out, err := d.run(ctx, "window-size", "shell", "hidumper", "-s", "WindowManagerService", "-a", "-a")
	if err != nil {
		return 0, 0, err
	}
	m := hdcDisplaySizeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("could not parse display size from hidumper output")
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, nil
}

func (d *HDCDriver) CurrentApp(ctx context.Context) (string, error) {
	out, err := d.run(ctx, "current-app", "shell", "aa", "dump", "-l")
	if err != nil {
		return "", err
	}
	if m := hdcBundleRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	return "", nil
}

var hdcBundleRe = regexp.MustCompile(`bundle name\s*\[([a-zA-Z0-9_.]+)\]`)

func (d *HDCDriver) Tap(ctx context.Context, x, y int) error {
	_, err := d.run(ctx, "tap", "shell", "uitest", "uiInput", "click", itoa(x), itoa(y))
	return err
}

func (d *HDCDriver) DoubleTap(ctx context.Context, x, y int) error {
	_, err := d.run(ctx, "double-tap", "shell", "uitest", "uiInput", "doubleClick", itoa(x), itoa(y))
	return err
}

func (d *HDCDriver) LongPress(ctx context.Context, x, y int, durationMS int) error {
	_, err := d.run(ctx, "long-press", "shell", "uitest", "uiInput", "longClick", itoa(x), itoa(y))
	return err
}

func (d *HDCDriver) Swipe(ctx context.Context, x1, y1, x2, y2 int, durationMS int) error {
	if durationMS <= 0 {
		durationMS = 300
	}
	_, err := d.run(ctx, "swipe", "shell", "uitest", "uiInput", "swipe",
		itoa(x1), itoa(y1), itoa(x2), itoa(y2), itoa(durationMS))
	return err
}

func (d *HDCDriver) Back(ctx context.Context) error {
	return d.SendKey(ctx, KeyBack)
}

func (d *HDCDriver) Home(ctx context.Context) error {
	return d.SendKey(ctx, KeyHome)
}

// hdcKeyRemap holds the key codes whose HarmonyOS uiInput numbering
// differs from Android's input keyevent numbering. Enter is the one that
// matters in practice: Android 66 maps to HarmonyOS keycode 2054.
var hdcKeyRemap = map[KeyCode]int{
	KeyEnter: 2054,
}

func (d *HDCDriver) SendKey(ctx context.Context, code KeyCode) error {
	if mapped, ok := hdcKeyRemap[code]; ok {
		_, err := d.run(ctx, "keyevent", "shell", "uitest", "uiInput", "keyEvent", strconv.Itoa(mapped))
		return err
	}
	_, err := d.run(ctx, "keyevent-fallback", "shell", "input", "keyevent", strconv.Itoa(int(code)))
	return err
}

func (d *HDCDriver) TypeText(ctx context.Context, text string) error {
	_, err := d.run(ctx, "type-text", "shell", "uitest", "uiInput", "inputText", shellQuote(text))
	return err
}

func (d *HDCDriver) ClearText(ctx context.Context) error {
	// uiInput has no dedicated clear; select-all then delete mirrors what
	// the uitest CLI itself recommends for clearing a focused field.
	if _, err := d.run(ctx, "select-all", "shell", "uitest", "uiInput", "keyEvent", "2017"); err != nil {
		return err
	}
	_, err := d.run(ctx, "delete", "shell", "uitest", "uiInput", "keyEvent", "2055")
	return err
}

// DetectAndSetADBKeyboard is a no-op on HarmonyOS: uiInput's inputText
// injects Unicode text directly without an IME swap.
func (d *HDCDriver) DetectAndSetADBKeyboard(ctx context.Context) (string, error) {
	return "", nil
}

func (d *HDCDriver) RestoreKeyboard(ctx context.Context, imeID string) error {
	return nil
}

func (d *HDCDriver) LaunchApp(ctx context.Context, label string) (bool, error) {
	pkg, ok := d.apps.Resolve(label)
	if !ok {
		return false, nil
	}
	_, err := d.run(ctx, "launch", "shell", "aa", "start", "-b", pkg, "-a", "MainAbility")
	if err != nil {
		return false, err
	}
	return true, nil
}
