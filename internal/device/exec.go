package device

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/phonessh/pilot/internal/logger"
)

// runShell invokes name with args under the given timeout, returning
// trimmed stdout. A non-zero exit or timeout is reported as a DeviceError
// tagged with op and device so callers can log/branch on it uniformly.
func runShell(ctx context.Context, timeout time.Duration, op, device, name string, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultSubprocessTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.DebugF("device", "exec", map[string]any{"op": op, "cmd": name, "args": args})

	if err := cmd.Run(); err != nil {
		if cctx.Err() != nil {
			return "", &DeviceError{Op: op, Device: device, Err: cctx.Err()}
		}
		return "", &DeviceError{Op: op, Device: device, Err: joinErr(err, stderr.String())}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runShellBinary is runShell's counterpart for commands whose stdout is
// binary (screencap -p).
func runShellBinary(ctx context.Context, timeout time.Duration, op, device, name string, args ...string) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultSubprocessTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cctx.Err() != nil {
			return nil, &DeviceError{Op: op, Device: device, Err: cctx.Err()}
		}
		return nil, &DeviceError{Op: op, Device: device, Err: joinErr(err, stderr.String())}
	}
	return stdout.Bytes(), nil
}

func joinErr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	return &execStderrError{underlying: err, stderr: stderr}
}

type execStderrError struct {
	underlying error
	stderr     string
}

func (e *execStderrError) Error() string { return e.underlying.Error() + ": " + e.stderr }
func (e *execStderrError) Unwrap() error { return e.underlying }
