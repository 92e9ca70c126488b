package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/open"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <change>",
		Short: "Open the first issue link of an archived change in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			db, err := archive.OpenDB(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.ChangeRows(args[0])
			if err != nil {
				return fmt.Errorf("load change %s: %w", args[0], err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("change %s is not archived (run 'p4cl report' first)", args[0])
			}

			url, _, _ := strings.Cut(rows[0].JiraURL, ", ")
			if url == "" {
				return fmt.Errorf("change %s has no issue link", args[0])
			}
			return open.URL(url)
		},
	}
}
