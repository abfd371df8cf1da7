package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) recountGoalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recount-goals",
		Short: "Rewrite the progress counters of every goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drifted, err := cli.goalSvc.RecountAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d goal(s) fixed\n", drifted)
			return nil
		},
	}
}
