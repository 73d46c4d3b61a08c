package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
	"github.com/modularflow/mcp-ui-explorer/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list [package]",
	Short: "List recorded macros or a macro's events",
	Long: `Without arguments, list the macro packages under --dir.
With a package path, list that macro's events in stored order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("dir", "macros", "Directory containing macro packages")
}

// macroEntry is one row in the package listing.
type macroEntry struct {
	Name      string `yaml:"name"       json:"name"`
	Path      string `yaml:"path"       json:"path"`
	CreatedAt string `yaml:"created_at" json:"created_at"`
	Events    int    `yaml:"events"     json:"events"`
	Duration  string `yaml:"duration"   json:"duration"`
}

// eventEntry is one row in the per-macro event listing.
type eventEntry struct {
	Index      int     `yaml:"index"                 json:"index"`
	Type       string  `yaml:"type"                  json:"type"`
	Timestamp  float64 `yaml:"timestamp"             json:"timestamp"`
	Detail     string  `yaml:"detail,omitempty"      json:"detail,omitempty"`
	Element    string  `yaml:"element,omitempty"     json:"element,omitempty"`
	Screenshot string  `yaml:"screenshot,omitempty"  json:"screenshot,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return listEvents(args[0])
	}
	dir, _ := cmd.Flags().GetString("dir")
	return listPackages(dir)
}

func listPackages(dir string) error {
	entries := []macroEntry{}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return output.Print(entries)
		}
		return err
	}

	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(dir, d.Name())
		macro, err := model.LoadMacro(path)
		if err != nil {
			continue
		}
		entries = append(entries, macroEntry{
			Name:      macro.Name,
			Path:      path,
			CreatedAt: macro.CreatedAt.Format("2006-01-02 15:04:05"),
			Events:    len(macro.Events),
			Duration:  formatSeconds(macro.Metadata.Duration),
		})
	}
	return output.Print(entries)
}

func listEvents(path string) error {
	macro, err := model.LoadMacro(path)
	if err != nil {
		return err
	}

	entries := make([]eventEntry, 0, len(macro.Events))
	for i, ev := range macro.Events {
		e := eventEntry{
			Index:      i,
			Type:       ev.EventType,
			Timestamp:  ev.Timestamp,
			Detail:     eventDetail(ev),
			Screenshot: ev.ScreenshotPath,
		}
		if ev.UIContext != nil {
			e.Element = elementSummary(ev.UIContext)
		}
		entries = append(entries, e)
	}
	return output.Print(entries)
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}

// eventDetail renders a one-line payload summary for the listing.
func eventDetail(ev model.MacroEvent) string {
	switch ev.EventType {
	case model.EventMouseClick:
		return fmt.Sprintf("%s at (%d, %d)", ev.Data.Button, ev.Data.X, ev.Data.Y)
	case model.EventMouseScroll:
		return fmt.Sprintf("(%d, %d) at (%d, %d)", ev.Data.DX, ev.Data.DY, ev.Data.X, ev.Data.Y)
	case model.EventKeyboardType:
		return fmt.Sprintf("%q", ev.Data.Text)
	case model.EventKeyboardKey:
		return ev.Data.Key
	case model.EventStateMarker:
		return ev.Data.State
	case model.EventWait:
		return formatSeconds(ev.Data.Seconds)
	default:
		return ""
	}
}

// elementSummary renders a compact "ControlType: Text" label.
func elementSummary(el *model.Element) string {
	if el.Text == "" {
		return el.ControlType
	}
	return fmt.Sprintf("%s: %s", el.ControlType, el.Text)
}
