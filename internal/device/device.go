// Package device provides a uniform control surface over a connected
// Android (ADB) or HarmonyOS (HDC) phone: screenshots, taps, swipes, text
// entry, app launch, and key events. It is the device-control abstraction
// described as C1 in the core specification.
package device

import (
	"context"
	"fmt"
	"time"
)

// Screenshot is a single captured frame. It is produced once per agent
// step and never mutated afterward.
type Screenshot struct {
	Width      int
	Height     int
	Base64PNG  string
	CapturedAt time.Time
}

// DeviceError wraps a failed transport command (non-zero exit, timeout, or
// absent device). It is non-fatal at the action level — the agent loop
// decides whether to retry on the next step.
type DeviceError struct {
	Op     string
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("device error (%s, device=%s): %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("device error (%s): %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// KeyCode is a standard Android key-event code. HarmonyOS transports
// remap the handful of codes that differ (notably Enter) and fall back to
// the Android-style `input keyevent` for the rest.
type KeyCode int

const (
	KeyBack  KeyCode = 4
	KeyHome  KeyCode = 3
	KeyEnter KeyCode = 66
)

// Driver is the uniform contract both transports implement. Every
// operation is synchronous, idempotent at the transport level, and takes
// the target device id implicitly (set at construction) rather than per
// call — callers that need to address multiple devices construct one
// Driver per device.
type Driver interface {
	Screenshot(ctx context.Context) (Screenshot, error)
	CurrentApp(ctx context.Context) (string, error)

	Tap(ctx context.Context, x, y int) error
	DoubleTap(ctx context.Context, x, y int) error
	LongPress(ctx context.Context, x, y int, durationMS int) error
	Swipe(ctx context.Context, x1, y1, x2, y2 int, durationMS int) error

	Back(ctx context.Context) error
	Home(ctx context.Context) error
	SendKey(ctx context.Context, code KeyCode) error

	TypeText(ctx context.Context, text string) error
	ClearText(ctx context.Context) error
	DetectAndSetADBKeyboard(ctx context.Context) (previousIME string, err error)
	RestoreKeyboard(ctx context.Context, imeID string) error

	LaunchApp(ctx context.Context, label string) (bool, error)

	// DeviceID returns the opaque identifier this driver targets, or ""
	// for the single default device.
	DeviceID() string
}

// DefaultSubprocessTimeout bounds every shell invocation a transport
// makes. A command that exceeds it fails with a DeviceError rather than
// hanging the step.
const DefaultSubprocessTimeout = 10 * time.Second

// customIME is the package id of the bundled Unicode-capable keyboard that
// Android transports swap in before typing text, per spec §6.
const customIME = "com.android.adbkeyboard/.AdbIME"

// ScaleCoordinate converts a model-relative coordinate (inclusive 0..999,
// using the 1000 scaling constant for compatibility with models that treat
// the range as 0..1000 inclusive) to an absolute pixel coordinate. Uses
// truncation rather than rounding so the result always satisfies
// 0 <= pixel < dim for any rel in [0, 999].
func ScaleCoordinate(rel, dim int) int {
	return int(float64(rel) / 1000.0 * float64(dim))
}
