package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Upload, annotate and queue every file in MEDIA_DIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			ingested, ingestErr := a.Media.Ingest(cmd.Context())

			out := cmd.OutOrStdout()
			if len(ingested) == 0 {
				fmt.Fprintf(out, "No new media in %s\n", a.Config.MediaDir)
			} else {
				rows := make([][]string, 0, len(ingested))
				for _, m := range ingested {
					rows = append(rows, []string{strconv.FormatInt(m.QueueID, 10), m.Filename, string(m.MediaType), m.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Filename", "Type", "URL"}, rows, []columnAlignment{alignRight}))
			}
			return ingestErr
		},
	}
}
