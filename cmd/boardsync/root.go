package main

import (
	"github.com/spf13/cobra"

	"boardsync/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		logLevel     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "boardsync",
		Short: "Boardsync keeps whiteboard scenes and their attachments synced with the board service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configureLogger(logLevel, cfg.LogLevel); err != nil {
				return err
			}
			return selectFormatter(outputFormat)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "", "output format (json, yaml)")

	cmd.AddCommand(
		newListCmd(cfg),
		newCreateCmd(cfg),
		newDeleteCmd(cfg),
		newOpenCmd(cfg),
		newSaveCmd(cfg),
		newReloadCmd(cfg),
		newGCCmd(cfg),
		newAttachCmd(cfg),
		newStatusCmd(cfg),
	)

	return cmd
}
