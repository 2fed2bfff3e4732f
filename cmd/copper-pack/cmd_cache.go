package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the response cache",
		Long:  "Only the sqlite driver keeps entries across invocations; for the other drivers these commands are no-ops.",
	}
	cmd.AddCommand(cacheClearCmd(), cachePruneCmd())
	return cmd
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := newCache(ctx)
			if err != nil {
				return fmt.Errorf("cache clear: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(ctx); err != nil {
				return fmt.Errorf("cache clear: %w", err)
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	}
}

func cachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := newCache(ctx)
			if err != nil {
				return fmt.Errorf("cache prune: %w", err)
			}
			defer func() { _ = store.Close() }()

			n, err := store.Prune(ctx)
			if err != nil {
				return fmt.Errorf("cache prune: %w", err)
			}
			fmt.Printf("Pruned %d expired entries.\n", n)
			return nil
		},
	}
}
