package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
	"github.com/Zuo-Peng/p4-changelist-report/internal/xlsx"
)

func reportCmd() *cobra.Command {
	var since, until, depot, output, groupBy string
	var appendRows, noArchive bool
	var workers int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Describe every change in the window and write the xlsx report",
		Long: `Lists the changes submitted to the depot in the window, describes each one
and writes one row per change and action to the report workbook. Authors in
exclude_authors are skipped. Issue URLs become hyperlinks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("depot") {
				cfg.Depot = depot
			}
			if flags.Changed("output") {
				cfg.Output = output
			}
			if flags.Changed("group-by") {
				cfg.GroupBy = groupBy
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			since, until, err := resolveWindow(time.Now(), cfg.WindowDays, since, until)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			builder, err := a.builder(client)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			changes := client.Changes(ctx, cfg.Depot, since, until)
			a.log.Info("listed changes",
				zap.String("depot", cfg.Depot),
				zap.String("since", since),
				zap.String("until", until),
				zap.Int("count", len(changes)))

			rows, stats, err := builder.Build(ctx, changes)
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}

			if len(rows) == 0 {
				a.log.Info("no data to write", zap.String("stats", stats.String()))
				fmt.Fprintf(os.Stderr, "Done. %s (nothing written)\n", stats)
				return nil
			}

			if err := xlsx.Write(rows, xlsx.Options{
				Path:      cfg.Output,
				SheetName: cfg.SheetName,
				Append:    appendRows,
			}); err != nil {
				return fmt.Errorf("write %s: %w", cfg.Output, err)
			}

			if cfg.Archive && !noArchive {
				if err := archiveRun(cfg.DBPath, archive.NewRun(cfg.Depot, since, until, cfg.Output), rows); err != nil {
					a.log.Warn("archive report", zap.String("db", cfg.DBPath), zap.Error(err))
				}
			}

			fmt.Fprintf(os.Stderr, "Done. %s -> %s\n", stats, cfg.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Window start (YYYY/MM/DD[:HH:MM:SS], default now - window_days)")
	cmd.Flags().StringVar(&until, "until", "", "Window end (YYYY/MM/DD[:HH:MM:SS], default now)")
	cmd.Flags().StringVar(&depot, "depot", "", "Depot path (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "Report file (default from config)")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Row grouping: action or change")
	cmd.Flags().BoolVar(&appendRows, "append", false, "Append rows to an existing report instead of replacing it")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel describe commands (default from config)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Do not record this run in the archive")

	return cmd
}

func archiveRun(dbPath string, run archive.Run, rows []report.Row) error {
	db, err := archive.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.RecordRun(run, rows)
}
