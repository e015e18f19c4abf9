package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastack/internal/adapter/input"
	"github.com/jmylchreest/toastack/internal/tui"
)

var tuiOpts struct {
	source string
	feed   string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the toast stack in the terminal",
	Long: `Show the toast stack in the terminal.

Toasts are read once from --source and then followed in --feed, a JSON
lines file that is reloaded whenever it is written.

Mouse:
  click           Expand the stack
  drag sideways   Dismiss a card (expanded only)
  ×               Dismiss a card

Key bindings:
  space/enter     Toggle expanded/collapsed
  esc             Collapse
  j/k, ↑/↓        Select card
  d               Dismiss selected card
  D               Dismiss all
  r               Resync with the store
  ?               Show help
  q               Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.source, "source", "",
		"Initial toast source (stdin, file, dunst; none if empty)")
	tuiCmd.Flags().StringVar(&tuiOpts.feed, "feed", "",
		"JSON lines file to follow for new toasts")
}

func runTUI(cmd *cobra.Command, args []string) error {
	var adapter input.InputAdapter
	if tuiOpts.source != "" {
		var err error
		adapter, err = input.NewAdapter(tuiOpts.source, tuiOpts.feed)
		if err != nil {
			return err
		}
	}

	return tui.Run(cmd.Context(), tui.RunOptions{
		Config:   getConfig(),
		Adapter:  adapter,
		FeedPath: tuiOpts.feed,
		Logger:   logger,
	})
}
