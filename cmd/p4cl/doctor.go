package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, p4 connection, archive and FTS5",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			cfg := a.cfg

			fmt.Println("=== Config ===")
			path := configPath
			if path == "" {
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("  File:    %s (not found, using defaults)\n", path)
			} else {
				fmt.Printf("  File:    %s (OK)\n", path)
			}
			fmt.Printf("  Depot:   %s\n", cfg.Depot)
			fmt.Printf("  Window:  %d days\n", cfg.WindowDays)
			fmt.Printf("  Output:  %s\n", cfg.Output)
			fmt.Printf("  Group:   %s\n", cfg.GroupBy)
			fmt.Printf("  Exclude: %s\n", strings.Join(cfg.ExcludeAuthors, ", "))

			fmt.Println("\n=== Perforce ===")
			client, err := a.client()
			if err != nil {
				return err
			}
			if bin, err := exec.LookPath(client.Binary()); err != nil {
				fmt.Printf("  Binary: %s (NOT FOUND)\n", client.Binary())
			} else {
				fmt.Printf("  Binary: %s (OK)\n", bin)
				info, err := client.Info(cmd.Context())
				if err != nil {
					fmt.Printf("  p4 info: %v\n", err)
				} else {
					for _, line := range strings.Split(strings.TrimSpace(info), "\n") {
						if strings.HasPrefix(line, "User name:") ||
							strings.HasPrefix(line, "Client name:") ||
							strings.HasPrefix(line, "Server address:") {
							fmt.Printf("  %s\n", strings.TrimSpace(line))
						}
					}
				}
			}

			fmt.Println("\n=== Archive ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if !cfg.Archive {
				fmt.Println("  Status: disabled")
			}
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'p4cl report' first)")
				return nil
			}

			db, err := archive.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			runCount, err := db.RunCount()
			if err != nil {
				return fmt.Errorf("count runs: %w", err)
			}
			rowCount, err := db.RowCount()
			if err != nil {
				return fmt.Errorf("count rows: %w", err)
			}
			fmt.Printf("  Runs: %d\n", runCount)
			fmt.Printf("  Rows: %d\n", rowCount)

			if runs, err := db.ListRuns(1); err == nil && len(runs) == 1 {
				fmt.Printf("  Last: %s %s..%s (%d rows)\n",
					runs[0].CreatedAt.Local().Format("2006-01-02 15:04"), runs[0].Since, runs[0].Until, runs[0].RowCount)
			}

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == rowCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (rows=%d, fts=%d)\n", rowCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}
