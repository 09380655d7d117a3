package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phonessh/pilot/internal/agent"
)

var (
	flagMaxSteps      int
	flagThirdParty    bool
	flagNoThinking    bool
	flagCompressImage bool
)

var runCmd = &cobra.Command{
	Use:   "run <natural-language-instruction>",
	Short: "Drive the device through a task using the model loop",
	Long: `Run a natural-language task through the perception-decision-actuation
loop: screenshot, ask the model for the next action, execute it, repeat
until the task finishes or the step budget runs out.

Sensitive taps (a Tap, Double Tap or Long Press the model attaches a
confirmation message to) prompt on the terminal before executing. In
third-party mode, if the loop detects it is stuck, it raises a recovery
hint and, after enough stuck warnings, hands control to you directly.

Examples:
  pilot run "open settings and turn on wifi"
  pilot run --thirdparty "search for cats on youtube"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagMaxSteps > 0 {
			cfg.MaxSteps = flagMaxSteps
		}
		if flagThirdParty {
			cfg.UseThirdPartyPrompt = true
		}
		if flagNoThinking {
			cfg.ThirdPartyThinking = false
		}
		if cmd.Flags().Changed("compress-image") {
			cfg.CompressImage = flagCompressImage
		}

		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		handler := newHandler(drv)
		model := newModelClient(cfg)

		a := agent.New(agent.Config{
			MaxSteps:            cfg.MaxSteps,
			Lang:                cfg.Lang,
			UseThirdPartyPrompt: cfg.UseThirdPartyPrompt,
			ThirdPartyThinking:  cfg.ThirdPartyThinking,
		}, drv, model, handler)

		ctx := context.Background()
		result, err := a.Step(ctx, task)
		if err != nil {
			die("%v", err)
		}
		printStep(1, result)
		for !result.Finished {
			result, err = a.Step(ctx, "")
			if err != nil {
				die("%v", err)
			}
			printStep(a.StepCount(), result)
		}

		if result.Success {
			green.Printf("\ndone: %s\n", result.Message)
		} else {
			red.Printf("\nstopped: %s\n", result.Message)
		}
		return nil
	},
}

func printStep(step int, result agent.StepResult) {
	if result.Action != nil {
		cyan.Printf("[%d] %s\n", step, describeAction(*result.Action))
	}
	if result.Message != "" && result.Finished {
		dim.Printf("    %s\n", result.Message)
	}
}

func init() {
	runCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 0, "override the step budget (0 = use config)")
	runCmd.Flags().BoolVar(&flagThirdParty, "thirdparty", false, "use the third-party prompt shape (C5)")
	runCmd.Flags().BoolVar(&flagNoThinking, "no-thinking", false, "omit <think>/<answer> tags in third-party mode")
	runCmd.Flags().BoolVar(&flagCompressImage, "compress-image", true, "downsize screenshots before sending")
}
