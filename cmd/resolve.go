package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/output"
	"github.com/modularflow/mcp-ui-explorer/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a UI element by screen point or description",
	Long: `Resolve a UI element, either at given screen coordinates or by a
content description (--text and/or --control-type).

Point resolution tries increasingly general strategies: shell-container
shortcuts (taskbar and tray), an accessibility-tree descent inside the
containing window, a region snapshot around the point, and finally the
bare window itself. The result carries a detection_method tag naming
which strategy produced it.`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Int("x", 0, "X screen coordinate")
	resolveCmd.Flags().Int("y", 0, "Y screen coordinate")
	resolveCmd.Flags().String("text", "", "Find element by text (case-insensitive substring)")
	resolveCmd.Flags().Bool("exact", false, "Require whole-string text match")
	resolveCmd.Flags().String("control-type", "", "Restrict matches to a control type (e.g. Button)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	e, err := newExplorer()
	if err != nil {
		return err
	}
	if e.resolver == nil {
		return fmt.Errorf("element resolution not available on this platform")
	}

	text, _ := cmd.Flags().GetString("text")
	controlType, _ := cmd.Flags().GetString("control-type")

	if text != "" || controlType != "" {
		exact, _ := cmd.Flags().GetBool("exact")
		el := e.resolver.ResolveByDescription(resolve.Query{
			Text:        text,
			Exact:       exact,
			ControlType: controlType,
		})
		return printResolved(el, 0, 0)
	}

	if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
		return fmt.Errorf("either --x and --y, or --text/--control-type, is required")
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	return printResolved(e.resolver.ResolveAtPoint(x, y), x, y)
}

func printResolved(el *model.Element, x, y int) error {
	result := output.ResolveResult{X: x, Y: y}
	if el != nil {
		result.Found = true
		result.DetectionMethod = el.DetectionMethod()
		result.Element = el
	}
	return output.Print(result)
}
