package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/tablesync"
)

func syncCmd() *cobra.Command {
	var (
		continuation string
		all          bool
		maxPages     int
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "sync <opportunities|companies|people>",
		Short: "Read a Copper table page by page",
		Long: `Reads one page of enriched records. The printed continuation token resumes
at the next page; no token means the table is complete. With --all, pages are
read until the table is exhausted or --max-pages is reached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			rt, err := models.ParseRecordType(args[0])
			if err != nil {
				return err
			}
			cont, err := models.DecodeContinuation(continuation)
			if err != nil {
				return err
			}

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			defer closeFn()

			pages := 1
			if all {
				pages = maxPages
			}

			total := 0
			next, err := sess.Tables.Walk(ctx, rt, cont, pages, func(page *tablesync.Page) error {
				total += len(page.Result)
				if outputJSON {
					out := map[string]any{"result": page.Result}
					if page.Continuation != nil {
						out["continuation"] = page.Continuation.Encode()
					}
					return printJSON(out)
				}
				for _, rec := range page.Result {
					printRow(rec)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}

			if !outputJSON {
				fmt.Printf("\n%d record(s)\n", total)
				if next != nil {
					fmt.Printf("continuation: %s\n", next.Encode())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&continuation, "continuation", "", "continuation token from a previous sync")
	cmd.Flags().BoolVar(&all, "all", false, "read pages until the table is exhausted")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "with --all, stop after this many pages (0 = no limit)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output each page as JSON")
	return cmd
}
