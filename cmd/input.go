package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modularflow/mcp-ui-explorer/internal/output"
	"github.com/modularflow/mcp-ui-explorer/internal/platform"
)

// InputResult is the output of the low-level input subcommands.
type InputResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Action string `yaml:"action"           json:"action"`
	X      int    `yaml:"x,omitempty"      json:"x,omitempty"`
	Y      int    `yaml:"y,omitempty"      json:"y,omitempty"`
	Text   string `yaml:"text,omitempty"   json:"text,omitempty"`
	Key    string `yaml:"key,omitempty"    json:"key,omitempty"`
	Error  string `yaml:"error,omitempty"  json:"error,omitempty"`
}

var inputCmd = &cobra.Command{
	Use:   "input",
	Short: "Dispatch a single input action",
	Long: `Dispatch one low-level input action: click, move, scroll, type, or key.

Generated replay scripts are sequences of these commands, so a saved
macro package can be replayed without the player.`,
}

var inputClickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click at screen coordinates",
	RunE:  runInputClick,
}

var inputMoveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move the pointer to screen coordinates",
	RunE:  runInputMove,
}

var inputScrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Scroll at screen coordinates",
	RunE:  runInputScroll,
}

var inputTypeCmd = &cobra.Command{
	Use:   "type",
	Short: "Type literal text",
	RunE:  runInputType,
}

var inputKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Press a named key",
	RunE:  runInputKey,
}

func init() {
	rootCmd.AddCommand(inputCmd)
	inputCmd.AddCommand(inputClickCmd, inputMoveCmd, inputScrollCmd, inputTypeCmd, inputKeyCmd)

	inputClickCmd.Flags().Int("x", 0, "X screen coordinate")
	inputClickCmd.Flags().Int("y", 0, "Y screen coordinate")
	inputClickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	inputClickCmd.Flags().Bool("double", false, "Double-click")

	inputMoveCmd.Flags().Int("x", 0, "X screen coordinate")
	inputMoveCmd.Flags().Int("y", 0, "Y screen coordinate")

	inputScrollCmd.Flags().Int("x", 0, "X screen coordinate")
	inputScrollCmd.Flags().Int("y", 0, "Y screen coordinate")
	inputScrollCmd.Flags().Int("dx", 0, "Horizontal scroll delta")
	inputScrollCmd.Flags().Int("dy", 0, "Vertical scroll delta")

	inputTypeCmd.Flags().String("text", "", "Text to type")
	inputTypeCmd.Flags().Int("delay", 12, "Delay between keystrokes in ms")

	inputKeyCmd.Flags().String("name", "", "Key name (e.g. enter, tab, f5)")
}

// inputter returns the platform input dispatcher or an error.
func inputter() (platform.Inputter, error) {
	e, err := newExplorer()
	if err != nil {
		return nil, err
	}
	if e.provider.Inputter == nil {
		return nil, fmt.Errorf("input dispatch not available on this platform")
	}
	return e.provider.Inputter, nil
}

// printInputResult prints the action result, converting a dispatch
// error into a structured failure plus non-zero exit.
func printInputResult(result InputResult, dispatchErr error) error {
	result.OK = dispatchErr == nil
	if dispatchErr != nil {
		result.Error = dispatchErr.Error()
	}
	if err := output.Print(result); err != nil {
		return err
	}
	return dispatchErr
}

func runInputClick(cmd *cobra.Command, args []string) error {
	in, err := inputter()
	if err != nil {
		return err
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	buttonName, _ := cmd.Flags().GetString("button")
	double, _ := cmd.Flags().GetBool("double")

	button, err := platform.ParseMouseButton(buttonName)
	if err != nil {
		return err
	}
	if err := in.MoveMouse(x, y); err != nil {
		return printInputResult(InputResult{Action: "click", X: x, Y: y}, err)
	}
	return printInputResult(InputResult{Action: "click", X: x, Y: y}, in.Click(x, y, button, double))
}

func runInputMove(cmd *cobra.Command, args []string) error {
	in, err := inputter()
	if err != nil {
		return err
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	return printInputResult(InputResult{Action: "move", X: x, Y: y}, in.MoveMouse(x, y))
}

func runInputScroll(cmd *cobra.Command, args []string) error {
	in, err := inputter()
	if err != nil {
		return err
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	dx, _ := cmd.Flags().GetInt("dx")
	dy, _ := cmd.Flags().GetInt("dy")
	return printInputResult(InputResult{Action: "scroll", X: x, Y: y}, in.Scroll(x, y, dx, dy))
}

func runInputType(cmd *cobra.Command, args []string) error {
	in, err := inputter()
	if err != nil {
		return err
	}
	text, _ := cmd.Flags().GetString("text")
	delay, _ := cmd.Flags().GetInt("delay")
	if text == "" {
		return fmt.Errorf("--text is required")
	}
	return printInputResult(InputResult{Action: "type", Text: text}, in.TypeText(text, delay))
}

func runInputKey(cmd *cobra.Command, args []string) error {
	in, err := inputter()
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	return printInputResult(InputResult{Action: "key", Key: name}, in.KeyTap(name))
}
