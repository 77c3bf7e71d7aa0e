// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/gcem/results"
)

func newRunsCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored constraint runs",
	}
	cmd.PersistentFlags().StringVar(&dir, "store", "", "run store directory")
	_ = cmd.MarkPersistentFlagRequired("store")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, oldest first",
		Args:  cobra.NoArgs,
	}
	list.RunE = a.runE(func(cmd *cobra.Command, _ []string) error {
		s, err := results.Open(results.Config{Path: dir})
		if err != nil {
			return err
		}
		defer s.Close()
		runs, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tCANDIDATES\tVALID\tERROR")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Candidates, r.ValidCount, r.Error)
		}

		return tw.Flush()
	})

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print one stored run as JSON",
		Args:  cobra.ExactArgs(1),
	}
	show.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		s, err := results.Open(results.Config{Path: dir})
		if err != nil {
			return err
		}
		defer s.Close()
		r, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return a.printJSON(r)
	})

	cmd.AddCommand(list, show)

	return cmd
}
