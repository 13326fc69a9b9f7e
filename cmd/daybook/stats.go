package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook"
)

func statsCmd(envFile, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index coverage and queue state",
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

			stats, err := client.Memory.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("messages: %d indexed of %d (%d pending)\n",
				stats.Messages().Indexed(), stats.Messages().Total(), stats.Messages().Pending())
			fmt.Printf("notes:    %d indexed of %d (%d pending)\n",
				stats.Notes().Indexed(), stats.Notes().Total(), stats.Notes().Pending())
			fmt.Printf("queue:    %d waiting\n", stats.QueueLength())
			if stats.Draining() {
				fmt.Println("a drain pass is running")
			}
			return nil
		},
	}
}

func drainCmd(envFile, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Process the pending work queue now",
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

			if err := client.Memory.DrainQueue(cmd.Context()); err != nil {
				return err
			}
			stats, err := client.Memory.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("queue drained, %d items remain\n", stats.QueueLength())
			return nil
		},
	}
}
