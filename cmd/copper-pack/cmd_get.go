package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/models"
)

func getCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "get <type> <url-or-id>",
		Short: "Fetch a single enriched record by URL or id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			rt, err := models.ParseRecordType(args[0])
			if err != nil {
				return err
			}

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			defer closeFn()

			rec, err := sess.Actions.Get(ctx, rt, args[1])
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
