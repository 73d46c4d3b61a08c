package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modularflow/mcp-ui-explorer/internal/output"
	"github.com/modularflow/mcp-ui-explorer/internal/recorder"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a desktop macro",
	Long: `Record global mouse and keyboard input into a macro package.

Each click and committed text entry is resolved to the UI element under
it and captured as an annotated screenshot. Press ` + "F9" + ` or Ctrl+C to
stop recording and save the package (macro.json, screenshots/, replay.sh,
README.md, and a zip bundle).`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().String("name", "macro", "Macro name (used for the package directory)")
	recordCmd.Flags().String("description", "", "Free-text description stored in the macro")
	recordCmd.Flags().String("output-dir", "macros", "Directory to write macro packages under")
	recordCmd.Flags().Bool("no-ui-context", false, "Skip element resolution for recorded events")
	recordCmd.Flags().Bool("no-screenshots", false, "Skip annotated screenshot capture")
	recordCmd.Flags().StringSlice("commit-keys", nil, "Keys that commit the text buffer (default: enter,tab,escape)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	e, err := newExplorer()
	if err != nil {
		return err
	}
	factory, err := e.recorderFactory()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	noContext, _ := cmd.Flags().GetBool("no-ui-context")
	noShots, _ := cmd.Flags().GetBool("no-screenshots")
	commitKeys, _ := cmd.Flags().GetStringSlice("commit-keys")

	session, err := factory.Start(recorder.Options{
		Name:               name,
		Description:        description,
		CaptureUIContext:   !noContext,
		CaptureScreenshots: !noShots,
		CommitKeys:         commitKeys,
		OutputDir:          outputDir,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Recording %q (session %s). Press %s or Ctrl+C to stop.\n",
		name, session.ID(), recorder.ToggleKey)

	// The hotkey is queued by the listener thread and drained here, so
	// state transitions happen on the main control flow only.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-session.Toggle():
	case <-interrupt:
	}

	result, err := session.Stop(true)
	if err != nil {
		return err
	}
	if printErr := output.Print(result); printErr != nil {
		return printErr
	}
	if !result.OK {
		return fmt.Errorf("saving macro package failed: %s", result.Error)
	}
	return nil
}
