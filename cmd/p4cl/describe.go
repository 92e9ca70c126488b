package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/p4-changelist-report/internal/render"
)

func describeCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "describe <change>",
		Short: "Show the report rows of one change",
		Long: `Describes one change and prints the rows the report would hold for it.
On a terminal the rows are rendered; piped output is TSV in report column order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client()
			if err != nil {
				return err
			}

			output := client.Describe(cmd.Context(), args[0])
			if raw {
				fmt.Print(output)
				return nil
			}

			builder, err := a.builder(client)
			if err != nil {
				return err
			}
			rows := builder.Rows(args[0], output)
			if len(rows) == 0 {
				fmt.Fprintf(os.Stderr, "No rows for change %s.\n", args[0])
				return nil
			}

			fd := int(os.Stdout.Fd())
			if term.IsTerminal(fd) {
				width, _, err := term.GetSize(fd)
				if err != nil {
					width = 0
				}
				fmt.Print(render.Change(rows, render.Options{Width: width}))
				return nil
			}

			for _, r := range rows {
				fmt.Println(tsvLine(r.Values()...))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the describe output as is")

	return cmd
}
