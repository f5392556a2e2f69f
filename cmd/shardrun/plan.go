package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

func planCmd(envFile *string) *cobra.Command {
	var (
		flags    planFlags
		asJSON   bool
		perShard bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Render the shard commands for a run without launching it",
		Long: `Render the shard commands for a run without launching it.

By default the joined command line (shards separated by " -- ") is printed to
stdout. Logs go to stderr, so the output can be piped.`,
		Example: `  shardrun plan -r rejection_sampling -n 100000 -s 100
  shardrun plan -t 'process --start {{.Start}} --end {{.End}}' -n 105 -s 10 --lines
  shardrun plan -r dpo -p model=allenai/tulu-2-7b --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.planParams(cmd)
			if err != nil {
				return err
			}

			client, _, err := openClient(*envFile)
			if err != nil {
				return err
			}
			defer closeClient(client)

			plan, err := client.Planner.Plan(cmd.Context(), params)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan, asJSON, perShard)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	cmd.Flags().BoolVar(&perShard, "lines", false, "Print one shard command per line")
	cmd.MarkFlagsMutuallyExclusive("recipe", "template")
	cmd.MarkFlagsMutuallyExclusive("json", "lines")

	return cmd
}

func writePlan(w io.Writer, plan service.Plan, asJSON, perShard bool) error {
	switch {
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewPlan(plan))
	case perShard:
		for _, c := range plan.Commands {
			if _, err := fmt.Fprintln(w, c.Text()); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(w, plan.Joined)
		return err
	}
}
