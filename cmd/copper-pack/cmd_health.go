package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity and credentials against the Copper API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			sess, closeFn, err := newSession(ctx, logger)
			if err != nil {
				fmt.Printf("Copper API: FAIL (%v)\n", err)
				return fmt.Errorf("health check failed")
			}
			defer closeFn()

			acct, err := sess.Health(ctx)
			if err != nil {
				fmt.Printf("Copper API: FAIL (%v)\n", err)
				return fmt.Errorf("health check failed")
			}
			fmt.Printf("Copper API: OK (account %q, id %s)\n", acct.Name, acct.ID)
			fmt.Printf("Cache: %s\n", cfg.Cache.Driver)
			return nil
		},
	}
}
