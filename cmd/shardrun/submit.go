package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun"
	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/submission"
)

func submitCmd(envFile *string) *cobra.Command {
	var (
		flags  planFlags
		split  bool
		dryRun bool
		name   string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Plan a run and hand it to the cluster launcher",
		Long: `Plan a run and hand it to the cluster launcher.

By default every shard command is joined into one launcher job. With --split
each shard is launched as its own job, several at a time
(SUBMIT_PARALLELISM). Every launch is recorded; see 'shardrun history'.`,
		Example: `  shardrun submit -r rejection_sampling -n 100000 -s 100
  shardrun submit -r rejection_sampling --split --dry-run
  shardrun submit -t 'python train.py --start {{.Start}} --end {{.End}}' -n 1000 -s 4 --cluster ai2/a100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.planParams(cmd)
			if err != nil {
				return err
			}

			var extra []shardrun.Option
			if cmd.Flags().Changed("dry-run") {
				extra = append(extra, shardrun.WithDryRun(dryRun))
			}
			client, _, err := openClient(*envFile, extra...)
			if err != nil {
				return err
			}
			defer closeClient(client)

			subs, err := client.Submissions.Submit(cmd.Context(), service.SubmitParams{
				Plan:  params,
				Split: split,
				Name:  name,
			})
			if werr := writeSubmissions(cmd.OutOrStdout(), subs); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&split, "split", false, "Launch one job per shard")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Record the launcher command without running it")
	cmd.Flags().StringVar(&name, "name", "", "Job name (default: run ID)")
	cmd.MarkFlagsMutuallyExclusive("recipe", "template")

	return cmd
}

func writeSubmissions(w io.Writer, subs []submission.Submission) error {
	for _, s := range subs {
		line := fmt.Sprintf("%d\t%s\t%s\t%s", s.ID(), s.Name(), s.Status(), s.RunID())
		if s.Error() != "" {
			line += "\t" + s.Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
