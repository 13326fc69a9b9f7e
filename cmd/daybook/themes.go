package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook"
)

func themesCmd(envFile, configFile *string) *cobra.Command {
	var minCount int
	var maxThemes int

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Surface recurring themes across the journal",
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

			analysis, err := client.Memory.AnalyzeRecurringThemes(cmd.Context(), minCount, maxThemes)
			if err != nil {
				return err
			}

			fmt.Println(analysis.Summary())
			for _, insight := range analysis.Insights() {
				fmt.Printf("  - %s\n", insight)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minCount, "min-count", 0, "how often a topic must recur to count as a theme")
	cmd.Flags().IntVar(&maxThemes, "max", 0, "maximum number of themes to report")

	return cmd
}
