package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/models"
)

func assignCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "assign <type> <url-or-id> <user email>",
		Short: "Assign a record to a Copper user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			rt, err := models.ParseRecordType(args[0])
			if err != nil {
				return err
			}

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("assign: %w", err)
			}
			defer closeFn()

			rec, err := sess.Actions.Assign(ctx, rt, args[1], args[2])
			if err != nil {
				return fmt.Errorf("assign: %w", err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
