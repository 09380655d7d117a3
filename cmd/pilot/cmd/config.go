package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/phonessh/pilot/internal/config"
	"github.com/phonessh/pilot/internal/prompt"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit the persisted configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration (API key redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path, err := config.Path()
		if err != nil {
			return err
		}
		redacted := cfg.Redacted()
		bold.Printf("config file: %s\n", path)
		fmt.Printf("  base_url:               %s\n", redacted.BaseURL)
		fmt.Printf("  api_key:                %s\n", redacted.APIKey)
		fmt.Printf("  model:                  %s\n", redacted.Model)
		fmt.Printf("  timeout:                %s\n", redacted.Timeout.AsDuration())
		fmt.Printf("  device_id:              %s\n", redacted.DeviceID)
		fmt.Printf("  lang:                   %s\n", redacted.Lang)
		fmt.Printf("  max_steps:              %d\n", redacted.MaxSteps)
		fmt.Printf("  use_thirdparty_prompt:  %t\n", redacted.UseThirdPartyPrompt)
		fmt.Printf("  thirdparty_thinking:    %t\n", redacted.ThirdPartyThinking)
		fmt.Printf("  compress_image:         %t\n", redacted.CompressImage)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single configuration key and persist it",
	Long: `Recognized keys: base_url, api_key, model, timeout, device_id, lang,
max_steps, use_thirdparty_prompt, thirdparty_thinking, compress_image.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := applySetting(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		green.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func applySetting(cfg *config.Config, key, value string) error {
	switch key {
	case "base_url":
		cfg.BaseURL = value
	case "api_key":
		cfg.APIKey = value
	case "model":
		cfg.Model = value
	case "timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	case "device_id":
		cfg.DeviceID = value
	case "lang":
		if value != "cn" && value != "en" {
			return fmt.Errorf("lang must be %q or %q", "cn", "en")
		}
		cfg.Lang = prompt.Lang(value)
	case "max_steps":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_steps must be an integer: %w", err)
		}
		cfg.MaxSteps = n
	case "use_thirdparty_prompt":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("use_thirdparty_prompt must be a bool: %w", err)
		}
		cfg.UseThirdPartyPrompt = b
	case "thirdparty_thinking":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("thirdparty_thinking must be a bool: %w", err)
		}
		cfg.ThirdPartyThinking = b
	case "compress_image":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("compress_image must be a bool: %w", err)
		}
		cfg.CompressImage = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func parseDuration(s string) (config.Duration, error) {
	var d config.Duration
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return d, nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
