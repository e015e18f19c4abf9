package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastack/internal/adapter/input"
	"github.com/jmylchreest/toastack/internal/adapter/output"
	"github.com/jmylchreest/toastack/internal/lifecycle"
	"github.com/jmylchreest/toastack/internal/model"
	"github.com/jmylchreest/toastack/internal/stack"
	"github.com/jmylchreest/toastack/internal/store"
)

var layoutOpts struct {
	source   string
	file     string
	expanded bool
	heights  []string
	dismiss  []string
	settle   bool
	format   string
	template string
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Compute and print stack placements",
	Long: `Read toasts, build a stack and print the placement of every card.

Heights are given per card, either positionally from the front of the
stack (--heights 80,120) or by id (--heights abc=80). Cards without a
height use the configured fallback.

Examples:
  # Collapsed placements for a JSON lines file
  toastack layout --source file --file toasts.jsonl

  # Expanded, with measured heights, as JSON
  echo '[{"title":"a"},{"title":"b"}]' | toastack layout --expanded --heights 80,120 -f json

  # Dismiss a card and show the stack after the exit finishes
  toastack layout --file toasts.jsonl --source file --expanded --dismiss abc --settle`,
	RunE: runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().StringVar(&layoutOpts.source, "source", "stdin",
		"Toast source (stdin, file, dunst)")
	layoutCmd.Flags().StringVar(&layoutOpts.file, "file", "",
		"Toast file for --source file")
	layoutCmd.Flags().BoolVar(&layoutOpts.expanded, "expanded", false,
		"Lay out the expanded stack")
	layoutCmd.Flags().StringSliceVar(&layoutOpts.heights, "heights", nil,
		"Card heights in pixels, positional or id=height")
	layoutCmd.Flags().StringSliceVar(&layoutOpts.dismiss, "dismiss", nil,
		"Dismiss cards by id before printing")
	layoutCmd.Flags().BoolVar(&layoutOpts.settle, "settle", false,
		"Finish pending transitions before printing")
	layoutCmd.Flags().StringVarP(&layoutOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu, ids)")
	layoutCmd.Flags().StringVar(&layoutOpts.template, "template", "",
		"Custom Go template for plain and dmenu output")
}

func runLayout(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	adapter, err := input.NewAdapter(layoutOpts.source, layoutOpts.file)
	if err != nil {
		return err
	}
	toasts, err := adapter.Import(ctx)
	if err != nil {
		return fmt.Errorf("failed to import toasts: %w", err)
	}

	c := getConfig()
	s := store.NewStore(c.DefaultCategory())
	defer s.Close()
	if _, err := s.AddBatch(toasts, adapter.Name()); err != nil {
		logger.Warn("some toasts were rejected", "error", err)
	}

	sched := lifecycle.NewManualScheduler()
	st, err := stack.New(func(t model.Toast, _ int) string { return t.Title }, stack.Options{
		Config:    c,
		Scheduler: sched,
		OnRemove:  func(key string) { s.Remove(key) },
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if _, err := st.Sync(s.All()); err != nil {
		return err
	}
	sched.Flush()

	if err := applyHeights(st, layoutOpts.heights); err != nil {
		return err
	}
	if layoutOpts.expanded {
		st.Expand()
	}
	for _, key := range layoutOpts.dismiss {
		if !st.Dismiss(key) {
			logger.Warn("cannot dismiss toast", "toast_id", key)
		}
	}
	if layoutOpts.settle {
		sched.Flush()
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = layoutOpts.template
	return output.NewFormatter(output.FormatType(layoutOpts.format), opts).Format(os.Stdout, frameOf(st))
}

// applyHeights reports each height argument to the stack. Positional arguments
// count from the front card.
func applyHeights(st *stack.Stack[string], args []string) error {
	keys := st.Keys()
	for i, arg := range args {
		key, value, byKey := strings.Cut(arg, "=")
		if !byKey {
			if i >= len(keys) {
				return fmt.Errorf("height %q: only %d toasts", arg, len(keys))
			}
			key, value = keys[i], arg
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("height %q: %w", arg, err)
		}
		if err := st.ReportHeight(strings.TrimSpace(key), h); err != nil {
			return err
		}
	}
	return nil
}

func frameOf(st *stack.Stack[string]) output.Frame {
	heights := st.Heights()
	fallback := st.Config().Stack.FallbackHeight

	cards := st.Cards()
	rows := make([]output.Row, len(cards))
	for i, c := range cards {
		h, ok := heights[c.Key]
		if !ok {
			h = fallback
		}
		t := c.Toast
		t.Category = c.Category
		rows[i] = output.Row{Toast: t, Placement: c.Placement, Phase: c.Phase.String(), Height: h}
	}
	return output.Frame{Mode: st.Mode(), Extent: st.Extent(), Rows: rows}
}
