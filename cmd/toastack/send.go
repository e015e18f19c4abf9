package main

import (
	"context"
	"fmt"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastack/internal/dbus"
	"github.com/jmylchreest/toastack/internal/model"
)

var sendOpts struct {
	appName  string
	category string
	timeout  time.Duration
	replaces uint32
	tag      string
	sound    string
	silent   bool
	close    uint32
	info     bool
}

var sendCmd = &cobra.Command{
	Use:   "send <title> [message]",
	Short: "Send a toast to the running notification daemon",
	Long: `Send a toast over D-Bus to whichever daemon owns
org.freedesktop.Notifications, normally toastackd.

The assigned notification id is printed so it can be replaced or closed.

Examples:
  toastack send "Build finished" "all 212 tests passed" --category success
  toastack send "Volume" "40%" --tag volume
  toastack send --close 7
  toastack send --info`,
	Args: func(cmd *cobra.Command, args []string) error {
		if sendOpts.close != 0 || sendOpts.info {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.appName, "app", "a", "toastack",
		"Application name")
	sendCmd.Flags().StringVarP(&sendOpts.category, "category", "c", "",
		"Toast category (success, error, info, warning)")
	sendCmd.Flags().DurationVarP(&sendOpts.timeout, "timeout", "t", 0,
		"Expire after this long (0 = server default)")
	sendCmd.Flags().Uint32VarP(&sendOpts.replaces, "replaces", "r", 0,
		"Replace the notification with this id")
	sendCmd.Flags().StringVar(&sendOpts.tag, "tag", "",
		"Stack tag; a newer toast with the same tag replaces the older one")
	sendCmd.Flags().StringVar(&sendOpts.sound, "sound", "",
		"Sound file to play instead of the category sound")
	sendCmd.Flags().BoolVar(&sendOpts.silent, "silent", false,
		"Suppress the arrival sound")
	sendCmd.Flags().Uint32Var(&sendOpts.close, "close", 0,
		"Close the notification with this id instead of sending")
	sendCmd.Flags().BoolVar(&sendOpts.info, "info", false,
		"Print the running server's identity")
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendOpts.category != "" {
		if _, ok := model.ParseCategory(sendOpts.category); !ok {
			return model.ErrInvalidCategory
		}
	}

	client, err := dbus.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	switch {
	case sendOpts.info:
		info, err := client.ServerInformation(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s), spec %s\n", info.Name, info.Version, info.Vendor, info.SpecVersion)
		return nil
	case sendOpts.close != 0:
		return client.CloseNotification(ctx, sendOpts.close)
	}

	var body string
	if len(args) > 1 {
		body = args[1]
	}
	n := dbus.NewNotification(sendOpts.appName, args[0], body, sendOpts.category, sendOpts.timeout)
	n.ReplacesID = sendOpts.replaces
	if sendOpts.tag != "" {
		n.Hints["x-dunst-stack-tag"] = godbus.MakeVariant(sendOpts.tag)
	}
	if sendOpts.sound != "" {
		n.Hints["sound-file"] = godbus.MakeVariant(sendOpts.sound)
	}
	if sendOpts.silent {
		n.Hints["suppress-sound"] = godbus.MakeVariant(true)
	}

	id, err := client.Notify(ctx, n)
	if err != nil {
		return err
	}
	logger.Debug("notification sent", "id", id, "summary", n.Summary)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
