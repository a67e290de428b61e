package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/marketcrew/scenario"
)

var crewCmd = &cobra.Command{
	Use:       "crew <" + strings.Join(scenario.Names(), "|") + ">",
	Short:     "Run one of the agent pipelines.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: scenario.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := cmd.OutOrStdout()

		exec, err := newExecutor(ctx)
		if err != nil {
			return err
		}

		if args[0] == scenario.NameVerified {
			fmt.Fprintln(out, scenario.ReferenceData(scenario.VerifiedProduct))

			report, err := scenario.RunVerified(ctx, exec)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Fprintln(out, report.Output.Transcript())
			}
			if !report.Verdict.Passed {
				fmt.Fprintln(out, "QA verification failed. Summary skipped.")
				fmt.Fprintln(out, report.Verdict.Report)
				return nil
			}
			if report.Verdict.Normalized {
				fmt.Fprintln(out, "QA passed after normalizing availability terms.")
			}
			fmt.Fprintln(out, report.Summary)
			return nil
		}

		c, err := scenario.Build(args[0], exec)
		if err != nil {
			return err
		}
		result, err := c.Kickoff(ctx)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintln(out, result.Transcript())
		}
		for _, task := range result.Tasks {
			fmt.Fprintf(out, "## %s (%s)\n\n%s\n\n", task.Task, task.Agent, task.Raw)
		}
		return nil
	},
}

func init() {
	crewCmd.Flags().BoolP("verbose", "v", false, "print the full agent transcript")
}
