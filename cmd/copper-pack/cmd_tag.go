package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/actions"
	"github.com/copperpack/copper-pack/internal/models"
)

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove record tags",
	}
	cmd.AddCommand(
		tagEditCmd("add", "Add a tag to a record", (*actions.Executor).AddTag),
		tagEditCmd("remove", "Remove a tag from a record", (*actions.Executor).RemoveTag),
	)
	return cmd
}

type tagEdit func(e *actions.Executor, ctx context.Context, rt models.RecordType, ref, tag string) (models.Record, error)

func tagEditCmd(use, short string, edit tagEdit) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   use + " <type> <url-or-id> <tag>",
		Short: short,
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
				return fmt.Errorf("tag %s: %w", use, err)
			}
			defer closeFn()

			rec, err := edit(sess.Actions, ctx, rt, args[1], args[2])
			if err != nil {
				return fmt.Errorf("tag %s: %w", use, err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
