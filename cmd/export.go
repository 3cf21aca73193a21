package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/nvr-ai/go-cityscapes/config"
	"github.com/nvr-ai/go-cityscapes/export"
	"github.com/nvr-ai/go-cityscapes/logging"
	"github.com/nvr-ai/go-cityscapes/metrics"
	"github.com/nvr-ai/go-cityscapes/store"
	"github.com/nvr-ai/go-cityscapes/writer"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCommand creates the command converting a local project directory.
func exportCommand(v *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert a project directory to the Cityscapes layout",
		Long: `Convert a local annotation project to Cityscapes ground truth.

Every image is assigned to train, val or test from its "split" tag, a plain
train/val/test tag, or the train ratio. Bitmap and polygon classes are exported;
other classes are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), settings, cmd.OutOrStdout())
		},
	}

	cobra.CheckErr(config.SetupFlags(cmd.Flags(), v))
	return cmd
}

func runExport(ctx context.Context, settings *config.Settings, out io.Writer) error {
	logger, err := logging.Init(settings.Log.Level, settings.Log.Format)
	if err != nil {
		return err
	}

	st, err := store.Open(settings.Project.Dir)
	if err != nil {
		return errors.Wrap(err, "open project")
	}

	m, err := metrics.NewExportMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	exp, err := export.New(st, writer.NewFS(settings.Output.Dir), export.Options{
		TrainRatio:  settings.Split.TrainRatio,
		Workers:     settings.Workers,
		HoleClasses: settings.HoleClasses,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	summary, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	if settings.Output.Archive != "" {
		if err := writer.ArchiveDir(settings.Output.Dir, settings.Output.Archive); err != nil {
			return err
		}
		logger.Info("result directory archived", "archive", settings.Output.Archive)
	}
	if settings.Metrics.Textfile != "" {
		if err := m.WriteToTextfile(settings.Metrics.Textfile); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "exported %d images of %s (%d failed) to %s\n",
		summary.Converted, summary.Project, summary.Failed, settings.Output.Dir)
	return nil
}
