package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configOpts struct {
	write bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as TOML: the defaults overlaid with
the config file. With --write the result is saved to the config path,
which is a convenient way to start a config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		if configOpts.write {
			if err := c.Save(configPath()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", configPath())
			return nil
		}
		data, err := c.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configOpts.write, "write", false,
		"Save the effective configuration to the config path")
}
