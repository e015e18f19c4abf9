package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastack/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the themes available to toastackd",
	Long: `List bundled themes and user themes from ~/.config/toastack/themes.
A user theme with a bundled theme's name replaces it. The active theme
is marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := theme.ThemesDir()
		if err != nil {
			logger.Warn("no user theme directory", "error", err)
		}
		themes, err := theme.List(dir)
		if err != nil {
			return err
		}

		active := getConfig().Display.Theme
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range themes {
			mark := " "
			if t.Name == active || t.Path == active {
				mark = "*"
			}
			source := "bundled"
			if !t.Bundled {
				source = t.Path
			}
			fmt.Fprintf(w, "%s %s\t%s\n", mark, t.Name, source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
