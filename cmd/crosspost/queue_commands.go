package main

import (
	"fmt"
	"strconv"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue totals and the next pending items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			overview, err := a.QueueService.Overview(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d  Posted: %d  Pending: %d\n",
				overview.TotalItems, overview.PostedItems, overview.PendingItems)
			if len(overview.NextPending) == 0 {
				fmt.Fprintln(out, "Nothing pending")
				return nil
			}
			fmt.Fprintln(out, renderItems(overview.NextPending))
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			list := a.Queue.ListUnposted
			if all {
				list = a.Queue.List
			}
			items, err := list(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderItems(items))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include posted items")
	return cmd
}

func newLinksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List every uploaded media URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			links, err := a.Links.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media links recorded")
				return nil
			}

			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{l.Filename, string(l.MediaType), formatTime(l.UploadDate), l.URL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Filename", "Type", "Uploaded", "URL"}, rows, nil))
			return nil
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove posted items older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.Config.RetentionDays
			}
			if days < 0 {
				return fmt.Errorf("days must not be negative")
			}

			removed, err := a.Queue.CleanupOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d posted items older than %d days\n", removed, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Retention window in days (defaults to RETENTION_DAYS)")
	return cmd
}

func renderItems(items []*models.ContentItem) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		posted := "no"
		if item.Posted {
			posted = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Filename,
			string(item.MediaType),
			formatTime(item.AddedDate),
			posted,
		})
	}
	return renderTable(
		[]string{"ID", "Filename", "Type", "Added", "Posted"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04")
}
