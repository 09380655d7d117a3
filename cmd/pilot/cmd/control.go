package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var tapCmd = &cobra.Command{
	Use:   "tap <x> <y>",
	Short: "Tap the screen at absolute pixel coordinates",
	Long: `Tap the device screen at the given pixel coordinates.

Use a screen-mirroring tool first to identify coordinates. Coordinates
here are absolute pixels, not the 0..999 model-relative scale the
agent loop uses internally.

Examples:
  pilot tap 540 1200
  pilot tap 100 500`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y, err := parseXY(args[0], args[1])
		if err != nil {
			return err
		}
		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		if err := drv.Tap(context.Background(), x, y); err != nil {
			return err
		}
		green.Printf("tapped (%d, %d)\n", x, y)
		return nil
	},
}

var swipeDuration int

var swipeCmd = &cobra.Command{
	Use:   "swipe <x1> <y1> <x2> <y2>",
	Short: "Swipe the screen from one point to another",
	Long: `Perform a swipe gesture on the device screen.

Examples:
  pilot swipe 540 1500 540 500          # scroll up
  pilot swipe 540 500 540 1500          # scroll down
  pilot swipe 100 960 900 960           # swipe right
  pilot swipe 540 1200 540 400 --duration 800`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords := make([]int, 4)
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid coordinate at position %d: %s", i+1, a)
			}
			coords[i] = v
		}
		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		if err := drv.Swipe(context.Background(), coords[0], coords[1], coords[2], coords[3], swipeDuration); err != nil {
			return err
		}
		green.Printf("swiped (%d,%d) -> (%d,%d)\n", coords[0], coords[1], coords[2], coords[3])
		return nil
	},
}

var typeCmd = &cobra.Command{
	Use:   "type <text>",
	Short: "Type text into the focused input field",
	Long: `Set text in the currently focused input field on the device.

Tap into a text field first (pilot tap <x> <y>) before typing. This
swaps in the bundled Unicode keyboard, clears the field, types, and
restores the previous keyboard.

Examples:
  pilot type "cats"
  pilot type "hello world"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		ctx := context.Background()
		prevIME, err := drv.DetectAndSetADBKeyboard(ctx)
		if err != nil {
			return err
		}
		defer drv.RestoreKeyboard(ctx, prevIME)
		if err := drv.ClearText(ctx); err != nil {
			return err
		}
		if err := drv.TypeText(ctx, text); err != nil {
			return err
		}
		green.Printf("typed: %s\n", text)
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:       "key <back|home>",
	Short:     "Press a navigation key",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"back", "home"},
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		ctx := context.Background()
		switch args[0] {
		case "back":
			err = drv.Back(ctx)
		case "home":
			err = drv.Home(ctx)
		default:
			return fmt.Errorf("unknown key %q (want back or home)", args[0])
		}
		if err != nil {
			return err
		}
		green.Printf("key: %s\n", args[0])
		return nil
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch <app label>",
	Short: "Launch an app by its label",
	Long: `Launch an app using the built-in label-to-package table
(see internal/device's app table; pass the exact label the table
recognizes, e.g. "Settings" or "设置").`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.Join(args, " ")
		drv, err := newDriver(flagDevice)
		if err != nil {
			return err
		}
		ok, err := drv.LaunchApp(context.Background(), label)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("app not found: %s", label)
		}
		green.Printf("launched: %s\n", label)
		return nil
	},
}

func init() {
	swipeCmd.Flags().IntVar(&swipeDuration, "duration", 300, "swipe duration in milliseconds")
}

func parseXY(xs, ys string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate: %s", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate: %s", ys)
	}
	return x, y, nil
}
