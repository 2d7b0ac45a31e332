package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/doctimeline/internal/app"
	"github.com/dgallion1/doctimeline/internal/config"
	"github.com/dgallion1/doctimeline/internal/pipeline"
)

var heading = color.New(color.FgBlue, color.Bold).SprintFunc()

// cli holds state shared by every subcommand.
type cli struct {
	cfg    config.Config
	log    *slog.Logger
	tz     string
	debug  bool
	output string
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "timeline",
		Short:         "Render project timelines declared in documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&c.tz, "tz", "", "Time zone for dates without one (default $TIMELINE_TZ or Local)")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Set log level to debug")
	cmd.PersistentFlags().StringVarP(&c.output, "output", "o", "text", "Output format. One of: (text | json)")

	cmd.AddCommand(newRenderCommand(c), newCheckCommand(c), newServeCommand(c))
	return cmd
}

func (c *cli) init() error {
	if c.output != "text" && c.output != "json" {
		return fmt.Errorf("invalid output format %q", c.output)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.tz != "" {
		loc, err := time.LoadLocation(c.tz)
		if err != nil {
			return fmt.Errorf("--tz %q: %w", c.tz, err)
		}
		cfg.Timezone, cfg.Location = c.tz, loc
	}
	if c.debug {
		cfg.LogLevel = "debug"
	}
	c.cfg = cfg
	c.log = app.NewLogger(cfg, os.Stderr, false)
	return nil
}

// load ingests every file into a fresh project. Files that fail are reported
// in the returned snapshots and left out of the project.
func (c *cli) load(ctx context.Context, files []string) (*pipeline.Project, []pipeline.JobSnapshot, error) {
	project := pipeline.NewProject(c.log, c.cfg.Location, nil)
	w := pipeline.NewWorker(c.log, c.cfg.PDFFallbackPdftotext)

	snaps := make([]pipeline.JobSnapshot, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		job := pipeline.NewJob(pipeline.DocIDForFile(path), filepath.Base(path), "", data)
		snaps = append(snaps, w.Run(ctx, project, job))
	}
	return project, snaps, nil
}
