package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/output"
	"github.com/modularflow/mcp-ui-explorer/internal/player"
	"github.com/modularflow/mcp-ui-explorer/internal/verify"
)

var playCmd = &cobra.Command{
	Use:   "play <package>",
	Short: "Replay a recorded macro",
	Long: `Replay a macro package (a directory containing macro.json, or the
file itself) at adjustable speed.

With --verify each step is confirmed against the live UI by the vision
service named in ` + verify.EnvServiceURL + `. A verification or dispatch
failure either stops playback (--stop-on-failure) or is logged and
playback continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Float64("speed", 1.0, "Speed multiplier (2.0 = twice as fast)")
	playCmd.Flags().Bool("verify", false, "Verify each step's effect via the vision service")
	playCmd.Flags().Bool("stop-on-failure", false, "Abort at the first failed step")
	playCmd.Flags().Bool("dry-run", false, "Walk the event stream without dispatching input")
}

func runPlay(cmd *cobra.Command, args []string) error {
	macro, err := model.LoadMacro(args[0])
	if err != nil {
		return err
	}

	e, err := newExplorer()
	if err != nil {
		return err
	}
	if e.provider.Inputter == nil {
		return fmt.Errorf("input dispatch not available on this platform")
	}

	speed, _ := cmd.Flags().GetFloat64("speed")
	doVerify, _ := cmd.Flags().GetBool("verify")
	stopOnFailure, _ := cmd.Flags().GetBool("stop-on-failure")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var verifier player.Verifier
	if c := verify.ClientFromEnv(); c != nil {
		verifier = c
	}
	if doVerify && verifier == nil {
		return fmt.Errorf("--verify requires %s to be set", verify.EnvServiceURL)
	}

	p := player.New(e.provider.Inputter, verifier)
	result, err := p.Play(cmd.Context(), macro, player.Options{
		Speed:         speed,
		Verify:        doVerify,
		StopOnFailure: stopOnFailure,
		DryRun:        dryRun,
	})
	if err != nil {
		return err
	}
	if printErr := output.Print(result); printErr != nil {
		return printErr
	}
	if !result.Success {
		return fmt.Errorf("playback failed after %d events", result.EventsExecuted)
	}
	return nil
}
