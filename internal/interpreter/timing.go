package interpreter

import "time"

// TimingConfig centralizes the fixed inter-step delays the Type handler
// inserts around an IME swap, so they can be tuned without touching call
// sites.
type TimingConfig struct {
	KeyboardSwitchDelay  time.Duration
	TextClearDelay       time.Duration
	TextInputDelay       time.Duration
	KeyboardRestoreDelay time.Duration
	LongPressDuration    time.Duration
	SwipeDuration        time.Duration
}

// DefaultTimingConfig mirrors the delays used by the source implementation
// this interpreter is modeled on.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		KeyboardSwitchDelay:  500 * time.Millisecond,
		TextClearDelay:       200 * time.Millisecond,
		TextInputDelay:       300 * time.Millisecond,
		KeyboardRestoreDelay: 300 * time.Millisecond,
		LongPressDuration:    600 * time.Millisecond,
		SwipeDuration:        300 * time.Millisecond,
	}
}
