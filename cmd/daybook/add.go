package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook"
)

func addCmd(envFile, configFile *string) *cobra.Command {
	var day string
	var title string

	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Record a journal entry",
		Long: `Record a journal message for a day. With --title the entry is
stored as a note instead. Indexing happens in the background; the entry is
durable immediately.`,
		Args: cobra.MinimumNArgs(1),
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

			if day == "" {
				day = time.Now().Format("2006-01-02")
			}
			text := strings.Join(args, " ")

			if title != "" {
				note, err := client.AddNote(cmd.Context(), day, title, text)
				if err != nil {
					return err
				}
				fmt.Printf("note %s recorded for %s\n", note.ID(), note.Day())
				return nil
			}

			message, err := client.AddMessage(cmd.Context(), day, text)
			if err != nil {
				return err
			}
			fmt.Printf("message %s recorded for %s\n", message.ID(), message.Day())
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "journal day in YYYY-MM-DD form (default today)")
	cmd.Flags().StringVar(&title, "title", "", "store the entry as a titled note")

	return cmd
}
