package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/doctimeline/internal/pipeline"
	"github.com/dgallion1/doctimeline/internal/render"
	"github.com/dgallion1/doctimeline/internal/report"
)

func newRenderCommand(c *cli) *cobra.Command {
	var docID string
	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Print the diagram source and summary tables",
		Long: "Render reads every FILE into one session and prints, for each document\n" +
			"declaring milestones or deadlines, the blockdiag source of the dependency\n" +
			"forest followed by the summary rows.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, snaps, err := c.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := failures(snaps); err != nil {
				return err
			}

			ids := project.TimelineDocuments()
			if docID != "" {
				ids = []string{docID}
			}
			if len(ids) == 0 {
				ids = []string{""}
			}

			out := cmd.OutOrStdout()
			var results []*render.Result
			for _, id := range ids {
				res, err := project.RenderTimeline(id)
				if err != nil {
					return err
				}
				if c.output == "json" {
					results = append(results, res)
					continue
				}
				printResult(out, res)
			}
			if c.output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Render only this document id")
	return cmd
}

func printResult(w io.Writer, res *render.Result) {
	if res.DocID != "" {
		fmt.Fprintln(w, heading("== "+res.DocID+" =="))
	}
	fmt.Fprint(w, res.Diagram)
	fmt.Fprintln(w)
	printTable(w, res.Rows)
	for _, t := range res.Tables {
		fmt.Fprintln(w)
		fmt.Fprintln(w, heading(t.Ref))
		printTable(w, t.Rows)
	}
	for _, warning := range res.Warnings() {
		fmt.Fprintln(w, color.YellowString("warning: %s", warning))
	}
}

func printTable(w io.Writer, rows [][]string) {
	fmt.Fprintln(w, heading(report.FormatRow(report.Header())))
	for _, r := range rows {
		fmt.Fprintln(w, report.FormatRow(r))
	}
}

// failures joins the errors of every job that did not apply.
func failures(snaps []pipeline.JobSnapshot) error {
	var msgs []string
	for _, s := range snaps {
		if s.Status == pipeline.StatusFailed {
			msgs = append(msgs, fmt.Sprintf("%s: %s", s.Filename, strings.Join(s.Progress.Errors, "; ")))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%d document(s) failed:\n  %s", len(msgs), strings.Join(msgs, "\n  "))
}
