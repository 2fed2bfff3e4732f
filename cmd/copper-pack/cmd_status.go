package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var (
		lossReason string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status <url-or-id> <Open|Won|Lost|Abandoned>",
		Short: "Change an opportunity's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			defer closeFn()

			rec, err := sess.Actions.SetStatus(ctx, args[0], args[1], lossReason)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().StringVar(&lossReason, "loss-reason", "", "loss reason name (status Lost only)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
