// Package config loads the settings the agent core consumes: model client
// connection info, device selection, prompt language, loop bounds, and the
// third-party-prompt feature toggles. A JSON file under the XDG config
// directory is read first, then environment variables starting with
// PILOT_ are overlaid on top, so a launcher can ship a baseline file and
// still let an operator override a single field for one run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/phonessh/pilot/internal/prompt"
)

// Config is the full configuration surface the core consumes (spec.md §6's
// table).
type Config struct {
	BaseURL string `json:"base_url" env:"PILOT_BASE_URL"`
	APIKey  string `json:"api_key" env:"PILOT_API_KEY"`
	Model   string `json:"model" env:"PILOT_MODEL"`
	Timeout Duration `json:"timeout" env:"PILOT_TIMEOUT"`

	DeviceID string `json:"device_id" env:"PILOT_DEVICE_ID"`

	Lang prompt.Lang `json:"lang" env:"PILOT_LANG"`

	MaxSteps            int  `json:"max_steps" env:"PILOT_MAX_STEPS"`
	UseThirdPartyPrompt bool `json:"use_thirdparty_prompt" env:"PILOT_USE_THIRDPARTY_PROMPT"`
	ThirdPartyThinking  bool `json:"thirdparty_thinking" env:"PILOT_THIRDPARTY_THINKING"`
	CompressImage       bool `json:"compress_image" env:"PILOT_COMPRESS_IMAGE"`
}

// Duration is time.Duration with text marshaling as a Go duration string
// ("30s") instead of an integer nanosecond count, so the config file stays
// readable and editable by hand and env.Parse can overlay it from a plain
// PILOT_TIMEOUT=30s environment variable.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// AsDuration converts back to a plain time.Duration for callers that build
// time.Duration-typed configs (modelclient.Config, interpreter timings).
func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing timeout: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the settings a fresh install starts with.
func Default() Config {
	return Config{
		BaseURL:             "http://127.0.0.1:8000/v1",
		APIKey:              "",
		Model:               "gpt-4o",
		Timeout:             Duration(30 * time.Second),
		DeviceID:            "",
		Lang:                prompt.LangCN,
		MaxSteps:            100,
		UseThirdPartyPrompt: false,
		ThirdPartyThinking:  true,
		CompressImage:       true,
	}
}

// Dir returns the directory the config file lives under, creating nothing.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "pilot"), nil
}

// Path returns the config file's full path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file if present, falling back to Default for a
// missing file, then overlays PILOT_* environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, readErr := os.ReadFile(path)
	switch {
	case os.IsNotExist(readErr):
		// no file yet, keep defaults
	case readErr != nil:
		return nil, fmt.Errorf("reading config: %w", readErr)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to the config file, creating the config directory if
// needed. The file is written 0600 since it may carry an API key.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Redacted returns a copy of cfg with APIKey masked, safe to print or log.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "[REDACTED]"
	}
	return c
}
