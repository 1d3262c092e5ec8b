package main

import (
	"github.com/spf13/cobra"

	"boardsync/internal/api"
	"boardsync/internal/config"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boards on the remote service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				boards, err := client.ListBoards(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(boards)
			})
		},
	}
}

func newCreateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new empty board",
		Args:  requireExactlyArgs(1, "board name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				board, err := client.CreateBoard(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(board)
			})
		},
	}
}
