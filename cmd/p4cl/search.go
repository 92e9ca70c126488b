package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var author, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search across archived report rows",
		Long: `Search the changes recorded by past reports. Without a query the most
recent changes are listed. Output is TSV when piped:
  change, date time, author, files, jira url, snippet

Example fzf binding:
  p4cl search "$*" | fzf --ansi --delimiter='\t' \
    --preview 'p4cl describe {1}' \
    --bind 'enter:execute(p4cl open {1})'`,
		Args: cobra.MaximumNArgs(1),
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

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			opts := archive.Options{
				Author: author,
				Since:  since,
				Limit:  limit,
			}

			// interactive TUI on a terminal, TSV for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, query, opts)
			}

			opts.Query = query
			results, err := archive.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				jira := r.JiraURL
				if jira == "" {
					jira = "-"
				}
				// first field stays plain for fzf {1}
				fmt.Printf("%s\t%s%s %s%s\t%s%s%s\t%s\t%s\t%s\n",
					r.Change,
					sColorDim, r.Date, r.Time, sColorReset,
					sColorGreen, tsvField(r.Author), sColorReset,
					tsvField(r.File),
					tsvField(jira),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Only changes by this author")
	cmd.Flags().StringVar(&since, "since", "", "Only changes submitted since date (YYYY/MM/DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
