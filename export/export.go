// Package export - Drives a project export into the Cityscapes layout.
//
// For each dataset the exporter first assigns every image to a split, then
// converts and writes the images in parallel:
//
//	leftImg8bit/<split>/<dataset>/<name>_leftImg8bit.<ext>
//	gtFine/<split>/<dataset>/<name>_gtFine_polygons.json
//	gtFine/<split>/<dataset>/<name>_gtFine_labelIds.png
//	gtFine/<split>/<dataset>/<name>_gtFine_color.png   (train and val only)
//	class_to_id.json
//
// A failing image is logged, counted and skipped; the run continues.
package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/classes"
	"github.com/nvr-ai/go-cityscapes/contour"
	"github.com/nvr-ai/go-cityscapes/converter"
	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/nvr-ai/go-cityscapes/images"
	"github.com/nvr-ai/go-cityscapes/logging"
	"github.com/nvr-ai/go-cityscapes/metrics"
	"github.com/nvr-ai/go-cityscapes/split"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ImageStore is the source of project metadata, annotations and image bytes.
type ImageStore interface {
	Project(ctx context.Context) (*annotation.Project, error)
	ListDatasets(ctx context.Context) ([]annotation.Dataset, error)
	ListImages(ctx context.Context, datasetID int64) ([]annotation.ImageInfo, error)
	FetchAnnotation(ctx context.Context, imageID int64) (*annotation.Annotation, error)
	FetchImage(ctx context.Context, imageID int64) ([]byte, error)
}

// FileWriter persists output files. Paths are slash-separated and relative to
// the result directory. Implementations must be safe for concurrent use.
type FileWriter interface {
	WriteMask(path string, m *images.Mask) error
	WriteJSON(path string, v any) error
	WriteImage(path string, data []byte) error
}

// Options configures an Exporter.
type Options struct {
	// TrainRatio is the train share of images without a split tag.
	TrainRatio float64
	// Workers bounds the images converted in parallel. Values below 1 mean 1.
	Workers int
	// HoleClasses lists the classes whose polygons keep their holes. Nil selects
	// the "out of roi" class only.
	HoleClasses []string
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *metrics.ExportMetrics
}

// Exporter runs exports. It holds no per-run state and can be reused.
type Exporter struct {
	store    ImageStore
	writer   FileWriter
	assigner *split.Assigner
	policy   contour.Policy
	workers  int
	logger   *slog.Logger
	metrics  *metrics.ExportMetrics
}

// New creates an exporter.
//
// Arguments:
//   - store: The project source.
//   - writer: The output sink.
//   - opts: The export options.
//
// Returns:
//   - *Exporter: The exporter.
//   - error: A *annotation.ConfigurationError for an invalid train ratio.
func New(store ImageStore, writer FileWriter, opts Options) (*Exporter, error) {
	assigner, err := split.NewAssigner(opts.TrainRatio)
	if err != nil {
		return nil, err
	}

	e := &Exporter{
		store:    store,
		writer:   writer,
		assigner: assigner,
		policy:   contour.DefaultPolicy(),
		workers:  max(opts.Workers, 1),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if opts.HoleClasses != nil {
		e.policy = contour.NewPolicy(opts.HoleClasses...)
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	return e, nil
}

// Run exports the whole project.
//
// Arguments:
//   - ctx: Cancels the run between images. Images already written stay intact.
//
// Returns:
//   - *Summary: The run outcome, also returned alongside an error with the
//     counts reached so far.
//   - error: A *annotation.ConfigurationError, a store or legend failure, or the
//     context error.
//
// Example:
//
// ```go
//
//	exp, err := export.New(st, writer.NewFS(out), export.Options{TrainRatio: 0.6, Workers: 4})
//	if err != nil {
//	    return err
//	}
//	summary, err := exp.Run(ctx)
//
// ```
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.With("run_id", runID)
	t := newTally(runID)
	summary := t.summary
	defer func() { summary.Duration = time.Since(start) }()

	project, err := e.store.Project(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "fetch project")
	}
	summary.Project = project.Name

	registry, err := classes.Build(project.Classes)
	if err != nil {
		return summary, err
	}
	log.Info("class registry built", "project", project.Name, "classes", registry.Len())

	datasets, err := e.store.ListDatasets(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "list datasets")
	}

	if err := e.writer.WriteJSON(LegendFile, registry.Legend()); err != nil {
		return summary, errors.Wrap(err, "write legend")
	}

	conv := converter.New(registry, e.policy)
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Datasets++
		if err := e.exportDataset(ctx, log.With("dataset", ds.Name), conv, ds, t); err != nil {
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	log.Info("export finished", "summary", summary)
	return summary, nil
}

func (e *Exporter) exportDataset(ctx context.Context, log *slog.Logger, conv *converter.Converter, ds annotation.Dataset, t *tally) error {
	infos, err := e.store.ListImages(ctx, ds.ID)
	if err != nil {
		return errors.Wrapf(err, "list images of dataset %s", ds.Name)
	}

	items := make([]split.Item, len(infos))
	for i, info := range infos {
		items[i] = split.Item{ID: info.ID, Tags: info.Tags}
	}
	assignment, warnings := e.assigner.Assign(items)
	e.report(log, t, warnings)

	counts := assignment.Counts()
	t.splits(counts)
	for _, s := range split.All {
		e.metrics.AddSplit(s.String(), counts[s])
	}
	log.Info("dataset assigned",
		"images", len(infos),
		"train", counts[split.Train],
		"val", counts[split.Val],
		"test", counts[split.Test])

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, info := range infos {
		if gctx.Err() != nil {
			break
		}
		s := assignment[info.ID]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.exportImage(gctx, log, conv, ds, info, s, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// exportImage converts and writes one image and records the outcome.
func (e *Exporter) exportImage(ctx context.Context, log *slog.Logger, conv *converter.Converter, ds annotation.Dataset, info annotation.ImageInfo, s split.Split, t *tally) {
	start := time.Now()
	log = log.With("image", info.Name, "image_id", info.ID, "split", s.String())

	err := e.writeImage(ctx, log, conv, ds, info, s, t)
	e.metrics.ObserveConversionDuration(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("image interrupted", "error", err)
			return
		}
		log.Error("image skipped", "error", err)
		t.failed()
		e.metrics.IncrementFailed()
		return
	}
	t.converted()
	e.metrics.IncrementConverted()
}

func (e *Exporter) writeImage(ctx context.Context, log *slog.Logger, conv *converter.Converter, ds annotation.Dataset, info annotation.ImageInfo, s split.Split, t *tally) error {
	ann, err := e.store.FetchAnnotation(ctx, info.ID)
	if err != nil {
		return errors.Wrap(err, "fetch annotation")
	}
	data, err := e.store.FetchImage(ctx, info.ID)
	if err != nil {
		return errors.Wrap(err, "fetch image")
	}

	res, err := conv.Convert(ann, s != split.Test)
	if err != nil {
		return errors.Wrap(err, "convert")
	}
	defer res.Close()

	e.report(log, t, res.Warnings)

	if err := e.writer.WriteJSON(AnnotationPath(s, ds.Name, info.Name, PolygonsSuffix), res.Polygons); err != nil {
		return err
	}
	if err := e.writer.WriteMask(AnnotationPath(s, ds.Name, info.Name, LabelIDsSuffix), res.Labels); err != nil {
		return err
	}
	if res.Color != nil {
		if err := e.writer.WriteMask(AnnotationPath(s, ds.Name, info.Name, ColorSuffix), res.Color); err != nil {
			return err
		}
	}
	// written last: an exported image implies complete ground truth
	if err := e.writer.WriteImage(ImagePath(s, ds.Name, info.Name), data); err != nil {
		return err
	}

	log.Log(ctx, logging.LevelTrace, "image written", "labels", len(ann.Labels), "objects", len(res.Polygons.Objects))
	return nil
}

// report logs and counts warnings.
func (e *Exporter) report(log *slog.Logger, t *tally, warnings []diagnostics.Warning) {
	for _, w := range warnings {
		log.Warn(w.Message, w.Attrs()...)
	}
	t.warnings(warnings)
	e.metrics.RecordWarnings(warnings)
}
