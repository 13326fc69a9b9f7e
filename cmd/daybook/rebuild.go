package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook"
)

func rebuildCmd(envFile, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Drop and rebuild the whole index",
		Long: `Delete every stored embedding and re-embed all live journal
entries. Use after switching embedding models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile, *configFile)
			if err != nil {
				return err
			}
			client, err := daybook.New(cmd.Context(), clientOptions(cfg)...)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			err = client.Memory.RebuildIndex(cmd.Context(), func(done, total int) {
				fmt.Printf("\rindexed %d/%d", done, total)
			})
			fmt.Println()
			if err != nil {
				return err
			}
			fmt.Println("index rebuilt")
			return nil
		},
	}
}

func cleanupCmd(envFile, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove embeddings whose journal entry is gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile, *configFile)
			if err != nil {
				return err
			}
			client, err := daybook.New(cmd.Context(), clientOptions(cfg)...)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			removed, err := client.Memory.CleanupOrphans(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d orphaned embeddings\n", removed)
			return nil
		},
	}
}
