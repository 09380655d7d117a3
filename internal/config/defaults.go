package config

import "fmt"

// Validate checks the loaded configuration for values the core cannot run
// with, filling in the field-level defaults that are safe to default
// silently (MaxSteps, Timeout) rather than reject.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("config: model is required")
	}
	if c.Lang != "" && c.Lang != "cn" && c.Lang != "en" {
		return fmt.Errorf("config: lang must be %q or %q, got %q", "cn", "en", c.Lang)
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = Default().MaxSteps
	}
	if c.Timeout <= 0 {
		c.Timeout = Default().Timeout
	}
	return nil
}
