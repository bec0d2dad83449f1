package main

import (
	"encoding/json"
	"fmt"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/spf13/cobra"
)

func newPostCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish one random pending item to every platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := a.PostingJob.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			if summary.ContentID == 0 {
				fmt.Fprintln(out, "No unposted content in queue")
				return nil
			}

			rows := make([][]string, 0, len(models.Platforms))
			for _, platform := range models.Platforms {
				rows = append(rows, []string{string(platform), summary.Results[platform].String()})
			}
			fmt.Fprintf(out, "Run %s posted item %d\n", summary.RunID, summary.ContentID)
			fmt.Fprintln(out, renderTable([]string{"Platform", "Result"}, rows, nil))
			fmt.Fprintf(out, "%d succeeded, %d skipped, %d failed\n", summary.Succeeded, summary.Skipped, summary.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	return cmd
}
