package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phonessh/pilot/internal/action"
	"github.com/phonessh/pilot/internal/config"
	"github.com/phonessh/pilot/internal/device"
	"github.com/phonessh/pilot/internal/interpreter"
	"github.com/phonessh/pilot/internal/logger"
	"github.com/phonessh/pilot/internal/modelclient"
	"github.com/phonessh/pilot/internal/prompt"
)

var (
	flagDevice    string
	flagTransport string
	flagBaseURL   string
	flagAPIKey    string
	flagModel     string
	flagLang      string
	flagVerbose   bool
)

var bold  = color.New(color.Bold)
var green = color.New(color.FgGreen)
var red   = color.New(color.FgRed)
var cyan  = color.New(color.FgCyan)
var dim   = color.New(color.FgHiBlack)

var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "pilot — drive a phone from natural-language instructions",
	Long: `pilot controls a connected Android (ADB) or HarmonyOS (HDC) device.

Quick start:
  1. Connect a device with USB debugging enabled
  2. Run: pilot run "open settings and turn on wifi"
  3. Or drive it directly: pilot tap 540 1200

Examples:
  pilot run "open the first video on the screen"
  pilot tap 540 1200
  pilot launch Settings
  pilot swipe 540 1500 540 500
  pilot type "cats"
  pilot key back
  pilot config show`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDevice, "device", "d", "", "device id (empty = first attached)")
	rootCmd.PersistentFlags().StringVar(&flagTransport, "transport", "android", "transport: android or harmony")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "override the model endpoint base URL")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "override the model API key")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "override the model name")
	rootCmd.PersistentFlags().StringVar(&flagLang, "lang", "", "override the prompt language (cn or en)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log every step at debug level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tapCmd)
	rootCmd.AddCommand(swipeCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the persisted config and overlays any flags the caller
// set on this invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagLang == "cn" || flagLang == "en" {
		cfg.Lang = prompt.Lang(flagLang)
	}
	if flagVerbose {
		logger.SetLevel(logger.DEBUG)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDriver constructs the Driver the given device/transport flags select.
func newDriver(deviceID string) (device.Driver, error) {
	var t device.Type
	switch flagTransport {
	case "", "android":
		t = device.TypeAndroid
	case "harmony":
		t = device.TypeHarmony
	default:
		return nil, fmt.Errorf("unknown transport %q (want android or harmony)", flagTransport)
	}
	return device.New(t, deviceID, device.DefaultAppTable())
}

// newHandler builds the action interpreter against console-default
// confirmation and takeover prompts.
func newHandler(drv device.Driver) *interpreter.Handler {
	return interpreter.NewHandler(drv, interpreter.DefaultTimingConfig(), nil, nil)
}

// newModelClient builds the model client from resolved config.
func newModelClient(cfg *config.Config) *modelclient.Client {
	return modelclient.New(modelclient.Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Timeout:       cfg.Timeout.AsDuration(),
		CompressImage: cfg.CompressImage,
	})
}

func die(format string, args ...interface{}) {
	red.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// describeAction renders a parsed action record for terminal echo in its
// compact do(...)/finish(...) form.
func describeAction(rec action.Record) string {
	return rec.String()
}
