package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func changesCmd() *cobra.Command {
	var since, until, depot string

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Print the change numbers submitted in the window, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			if depot == "" {
				depot = a.cfg.Depot
			}
			since, until, err := resolveWindow(time.Now(), a.cfg.WindowDays, since, until)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			changes := client.Changes(cmd.Context(), depot, since, until)
			if len(changes) == 0 {
				fmt.Fprintln(os.Stderr, "No changes found.")
				return nil
			}
			for _, c := range changes {
				fmt.Println(c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Window start (YYYY/MM/DD[:HH:MM:SS], default now - window_days)")
	cmd.Flags().StringVar(&until, "until", "", "Window end (YYYY/MM/DD[:HH:MM:SS], default now)")
	cmd.Flags().StringVar(&depot, "depot", "", "Depot path (default from config)")

	return cmd
}
