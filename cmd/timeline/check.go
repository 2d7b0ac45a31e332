package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/doctimeline/internal/pipeline"
)

var errCheckFailed = errors.New("check failed")

func newCheckCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Resolve the timeline and report problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, snaps, err := c.load(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := false
			for _, s := range snaps {
				if s.Status != pipeline.StatusFailed {
					fmt.Fprintf(out, "%s %s (%d chunks)\n", color.GreenString("ok  "), s.Filename, s.Progress.Chunks)
					continue
				}
				failed = true
				for _, e := range s.Progress.Errors {
					fmt.Fprintf(out, "%s %s: %s\n", color.RedString("FAIL"), s.Filename, e)
				}
			}

			ids := project.TimelineDocuments()
			if len(ids) == 0 {
				ids = []string{""}
			}
			for _, id := range ids {
				res, err := project.RenderTimeline(id)
				if err != nil {
					failed = true
					fmt.Fprintf(out, "%s %s\n", color.RedString("FAIL"), err)
					continue
				}
				for _, w := range res.Warnings() {
					fmt.Fprintf(out, "%s %s\n", color.YellowString("warn"), w)
				}
			}

			if failed {
				return errCheckFailed
			}
			return nil
		},
	}
}
