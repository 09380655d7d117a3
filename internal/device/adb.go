package device

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phonessh/pilot/internal/logger"
)

// ADBDriver drives a phone over the host adb binary. Text entry routes
// through the bundled Unicode-capable keyboard so Chinese (and other
// non-ASCII) input types reliably; the driver captures whatever IME was
// active before the swap and restores it afterward.
type ADBDriver struct {
	deviceID string
	timeout  time.Duration
	apps     AppTable
}

func NewADBDriver(deviceID string, apps AppTable) *ADBDriver {
	return &ADBDriver{deviceID: deviceID, timeout: DefaultSubprocessTimeout, apps: apps}
}

func (d *ADBDriver) DeviceID() string { return d.deviceID }

func (d *ADBDriver) prefix() []string {
	if d.deviceID == "" {
		return []string{"adb"}
	}
	return []string{"adb", "-s", d.deviceID}
}

func (d *ADBDriver) run(ctx context.Context, op string, args ...string) (string, error) {
	pre := d.prefix()
	return runShell(ctx, d.timeout, op, d.deviceID, pre[0], append(pre[1:], args...)...)
}

func (d *ADBDriver) runBinary(ctx context.Context, op string, args ...string) ([]byte, error) {
	pre := d.prefix()
	return runShellBinary(ctx, d.timeout, op, d.deviceID, pre[0], append(pre[1:], args...)...)
}

func (d *ADBDriver) Screenshot(ctx context.Context) (Screenshot, error) {
	data, err := d.runBinary(ctx, "screenshot", "shell", "screencap", "-p")
	if err != nil {
		return Screenshot{}, err
	}
	// adb over some transports translates \n to \r\n in binary streams;
	// strip the inserted \r bytes the way every long-lived adb screencap
	// wrapper does.
	data = stripCRLF(data)

	w, h, err := d.screenSize(ctx)
	if err != nil {
		logger.Warn("device", "could not determine screen size, leaving 0x0: "+err.Error())
	}

	return Screenshot{
		Width:      w,
		Height:     h,
		Base64PNG:  base64.StdEncoding.EncodeToString(data),
		CapturedAt: time.Now(),
	}, nil
}

var windowSizeRe = regexp.MustCompile(`cur=(\d+)x(\d+)`)

// screenSize derives the current (rotation-aware) screen dimensions from
// `dumpsys window`, matching spec §4.1's "Width/height come from the
// device's current rotation."
func (d *ADBDriver) screenSize(ctx context.Context) (int, int, error) {
	out, err := d.run(ctx, "window-size", "shell", "dumpsys", "window", "displays")
	if err != nil {
		return 0, 0, err
	}
	m := windowSizeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("could not parse display size from dumpsys output")
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, nil
}

var focusedAppRe = regexp.MustCompile(`mCurrentFocus=.*\{.* ([a-zA-Z0-9_.]+)/[a-zA-Z0-9_.$]+\}`)

func (d *ADBDriver) CurrentApp(ctx context.Context) (string, error) {
	out, err := d.run(ctx, "current-app", "shell", "dumpsys", "window", "windows")
	if err != nil {
		return "", err
	}
	if m := focusedAppRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	return "", nil
}

func (d *ADBDriver) Tap(ctx context.Context, x, y int) error {
	_, err := d.run(ctx, "tap", "shell", "input", "tap", itoa(x), itoa(y))
	return err
}

func (d *ADBDriver) DoubleTap(ctx context.Context, x, y int) error {
	if err := d.Tap(ctx, x, y); err != nil {
		return err
	}
	time.Sleep(80 * time.Millisecond)
	return d.Tap(ctx, x, y)
}

func (d *ADBDriver) LongPress(ctx context.Context, x, y int, durationMS int) error {
	if durationMS <= 0 {
		durationMS = 600
	}
	_, err := d.run(ctx, "long-press", "shell", "input", "swipe",
		itoa(x), itoa(y), itoa(x), itoa(y), itoa(durationMS))
	return err
}

func (d *ADBDriver) Swipe(ctx context.Context, x1, y1, x2, y2 int, durationMS int) error {
	if durationMS <= 0 {
		durationMS = 300
	}
	_, err := d.run(ctx, "swipe", "shell", "input", "swipe",
		itoa(x1), itoa(y1), itoa(x2), itoa(y2), itoa(durationMS))
	return err
}

func (d *ADBDriver) Back(ctx context.Context) error {
	return d.SendKey(ctx, KeyBack)
}

func (d *ADBDriver) Home(ctx context.Context) error {
	return d.SendKey(ctx, KeyHome)
}

func (d *ADBDriver) SendKey(ctx context.Context, code KeyCode) error {
	_, err := d.run(ctx, "keyevent", "shell", "input", "keyevent", strconv.Itoa(int(code)))
	return err
}

func (d *ADBDriver) TypeText(ctx context.Context, text string) error {
	// Broadcast into the bundled ADB keyboard rather than `input text`,
	// which mangles non-ASCII input.
	_, err := d.run(ctx, "type-text", "shell", "am", "broadcast",
		"-a", "ADB_INPUT_TEXT", "--es", "msg", shellQuote(text))
	return err
}

func (d *ADBDriver) ClearText(ctx context.Context) error {
	_, err := d.run(ctx, "clear-text", "shell", "am", "broadcast", "-a", "ADB_CLEAR_TEXT")
	return err
}

func (d *ADBDriver) DetectAndSetADBKeyboard(ctx context.Context) (string, error) {
	previous, err := d.run(ctx, "get-ime", "shell", "settings", "get", "secure", "default_input_method")
	if err != nil {
		return "", err
	}
	if previous == customIME {
		return previous, nil
	}
	if _, err := d.run(ctx, "set-ime", "shell", "ime", "set", customIME); err != nil {
		return previous, err
	}
	return previous, nil
}

func (d *ADBDriver) RestoreKeyboard(ctx context.Context, imeID string) error {
	if imeID == "" || imeID == customIME {
		return nil
	}
	_, err := d.run(ctx, "restore-ime", "shell", "ime", "set", imeID)
	return err
}

func (d *ADBDriver) LaunchApp(ctx context.Context, label string) (bool, error) {
	pkg, ok := d.apps.Resolve(label)
	if !ok {
		return false, nil
	}
	_, err := d.run(ctx, "launch", "shell", "monkey", "-p", pkg,
		"-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return false, err
	}
	return true, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func stripCRLF(data []byte) []byte {
	if !strings.Contains(string(data[:min(len(data), 4096)]), "\r\n") {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
