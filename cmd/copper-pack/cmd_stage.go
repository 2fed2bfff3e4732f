package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func stageCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "stage <url-or-id> <stage name>",
		Short: "Move an opportunity to a stage of its pipeline",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("stage: %w", err)
			}
			defer closeFn()

			// Stage names may contain spaces and arrive unquoted.
			rec, err := sess.Actions.SetStage(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("stage: %w", err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
