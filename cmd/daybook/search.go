package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook"
	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/search"
)

func searchCmd(envFile, configFile *string) *cobra.Command {
	var limit int
	var minScore float64
	var day string
	var fromDay string
	var toDay string
	var entryTypes []string

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the journal by meaning",
		Args:  cobra.MinimumNArgs(1),
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

			reqOpts := []search.RequestOption{search.WithMinScore(minScore)}
			if limit > 0 {
				reqOpts = append(reqOpts, search.WithLimit(limit))
			} else if cfg.SearchLimit() > 0 {
				reqOpts = append(reqOpts, search.WithLimit(cfg.SearchLimit()))
			}
			if day != "" {
				reqOpts = append(reqOpts, search.WithDay(day))
			}
			if fromDay != "" || toDay != "" {
				reqOpts = append(reqOpts, search.WithDayRange(fromDay, toDay))
			}
			if len(entryTypes) > 0 {
				types := make([]journal.EntityType, 0, len(entryTypes))
				for _, raw := range entryTypes {
					t, err := journal.ParseEntityType(raw)
					if err != nil {
						return err
					}
					types = append(types, t)
				}
				reqOpts = append(reqOpts, search.WithEntityTypes(types...))
			}

			req := search.NewRequest(strings.Join(args, " "), reqOpts...)
			results, err := client.Memory.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}

			for _, r := range results {
				header := fmt.Sprintf("%2d. [%.3f] %s %s", r.Rank(), r.Score(), r.Day(), r.Ref().EntityType())
				if r.Title() != "" {
					header += " " + r.Title()
				}
				fmt.Println(header)
				fmt.Printf("    %s\n", r.Excerpt())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "similarity floor, results below are dropped")
	cmd.Flags().StringVar(&day, "day", "", "restrict to one YYYY-MM-DD day")
	cmd.Flags().StringVar(&fromDay, "from", "", "inclusive lower day bound")
	cmd.Flags().StringVar(&toDay, "to", "", "inclusive upper day bound")
	cmd.Flags().StringSliceVar(&entryTypes, "type", nil, "restrict to entry types (message, note)")

	return cmd
}
