package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/submission"
)

func historyCmd(envFile *string) *cobra.Command {
	var (
		params service.ListParams
		status string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = submission.Status(status)
			if status != "" && !params.Status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}

			client, _, err := openClient(*envFile)
			if err != nil {
				return err
			}
			defer closeClient(client)

			subs, err := client.History.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), subs)
		},
	}

	cmd.Flags().StringVar(&params.RunID, "run-id", "", "Filter by run ID")
	cmd.Flags().StringVar(&params.Recipe, "recipe", "", "Filter by recipe")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, submitted, failed, dry_run")
	cmd.Flags().IntVar(&params.Limit, "limit", 20, "Maximum number of submissions (0 for all)")

	return cmd
}

func writeHistory(w io.Writer, subs []submission.Submission) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tRUN\tNAME\tSHARD\tSTATUS\tEXIT")
	for _, s := range subs {
		shard := "all"
		if !s.IsComposite() {
			shard = fmt.Sprint(s.ShardIndex())
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			s.ID(), s.CreatedAt().Local().Format("2006-01-02 15:04:05"),
			s.RunID(), s.Name(), shard, s.Status(), s.ExitCode())
	}
	return tw.Flush()
}
