package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/models"
)

func setFieldCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "set-field <type> <url-or-id> <field name> <value>",
		Short: "Set a custom field on a record",
		Long: `Sets a custom field by name. Dates use YYYY-MM-DD, checkboxes accept
true/false or yes/no, multi-select options are comma separated, and an empty
value clears the field.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			rt, err := models.ParseRecordType(args[0])
			if err != nil {
				return err
			}

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("set-field: %w", err)
			}
			defer closeFn()

			rec, err := sess.Actions.SetCustomField(ctx, rt, args[1], args[2], args[3])
			if err != nil {
				return fmt.Errorf("set-field: %w", err)
			}
			return printRecord(rec, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
