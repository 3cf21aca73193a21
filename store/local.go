// Package store - Reads annotation projects from a local directory.
//
// The layout is the one produced by the annotation platform's project download:
//
//	<project>/meta.json
//	<project>/<dataset>/img/<image>
//	<project>/<dataset>/ann/<image>.json
//
// Datasets and images are listed in file name order and get sequential IDs, so
// repeated listings of an unchanged directory are identical.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/images"
	"github.com/pkg/errors"
)

const (
	metaFile = "meta.json"
	imgDir   = "img"
	annDir   = "ann"
)

// imageFile locates one image and its annotation.
type imageFile struct {
	// The path to the image file.
	Path string
	// The path to the annotation JSON.
	AnnotationPath string
}

// Local serves a project directory. It is safe for concurrent use once opened.
type Local struct {
	project  *annotation.Project
	datasets []annotation.Dataset
	// images of each dataset, in listing order
	listing map[int64][]annotation.ImageInfo
	files   map[int64]imageFile
}

// Open scans a project directory.
//
// Arguments:
//   - dir: The project directory.
//
// Returns:
//   - *Local: The store.
//   - error: If meta.json or a dataset directory cannot be read.
//
// Example:
//
// ```go
//
//	st, err := store.Open("/data/roads")
//	if err != nil {
//	    return err
//	}
//	datasets, _ := st.ListDatasets(ctx)
//
// ```
func Open(dir string) (*Local, error) {
	meta, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, errors.Wrap(err, "read project meta")
	}
	project, err := parseMeta(filepath.Base(filepath.Clean(dir)), meta)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read project directory")
	}

	l := &Local{
		project: project,
		listing: make(map[int64][]annotation.ImageInfo),
		files:   make(map[int64]imageFile),
	}

	var nextImage int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dsDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(dsDir, imgDir)); err != nil {
			continue
		}

		ds := annotation.Dataset{ID: int64(len(l.datasets) + 1), Name: entry.Name()}
		files, err := loadDatasetImageFiles(dsDir)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %s", ds.Name)
		}
		for _, f := range files {
			nextImage++
			l.files[nextImage] = f
			l.listing[ds.ID] = append(l.listing[ds.ID], annotation.ImageInfo{
				ID:   nextImage,
				Name: filepath.Base(f.Path),
			})
		}
		l.datasets = append(l.datasets, ds)
	}
	return l, nil
}

// loadDatasetImageFiles lists the image files of a dataset directory by name.
func loadDatasetImageFiles(dsDir string) ([]imageFile, error) {
	// os.ReadDir returns entries sorted by file name
	files, err := os.ReadDir(filepath.Join(dsDir, imgDir))
	if err != nil {
		return nil, err
	}

	var out []imageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if _, ok := images.FormatFromName(file.Name()); !ok {
			continue
		}
		out = append(out, imageFile{
			Path:           filepath.Join(dsDir, imgDir, file.Name()),
			AnnotationPath: filepath.Join(dsDir, annDir, file.Name()+".json"),
		})
	}
	return out, nil
}

// Project returns the project metadata.
func (l *Local) Project(_ context.Context) (*annotation.Project, error) {
	return l.project, nil
}

// ListDatasets returns the datasets in name order.
func (l *Local) ListDatasets(_ context.Context) ([]annotation.Dataset, error) {
	out := make([]annotation.Dataset, len(l.datasets))
	copy(out, l.datasets)
	return out, nil
}

// ListImages returns the images of a dataset with their tags. An image whose
// annotation cannot be read is listed without tags; fetching its annotation
// reports the failure.
func (l *Local) ListImages(ctx context.Context, datasetID int64) ([]annotation.ImageInfo, error) {
	listing, ok := l.listing[datasetID]
	if !ok {
		return nil, errors.Errorf("unknown dataset %d", datasetID)
	}

	out := make([]annotation.ImageInfo, len(listing))
	for i, info := range listing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = info
		out[i].Tags = l.readTags(l.files[info.ID].AnnotationPath)
	}
	return out, nil
}

func (l *Local) readTags(path string) []annotation.Tag {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw struct {
		Tags []tagJSON `json:"tags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return parseTags(raw.Tags)
}

// FetchAnnotation reads and parses the annotation of an image.
func (l *Local) FetchAnnotation(_ context.Context, imageID int64) (*annotation.Annotation, error) {
	f, ok := l.files[imageID]
	if !ok {
		return nil, errors.Errorf("unknown image %d", imageID)
	}
	data, err := os.ReadFile(f.AnnotationPath)
	if err != nil {
		return nil, errors.Wrap(err, "read annotation")
	}
	return parseAnnotation(data, l.project)
}

// FetchImage returns the encoded image bytes.
func (l *Local) FetchImage(_ context.Context, imageID int64) ([]byte, error) {
	f, ok := l.files[imageID]
	if !ok {
		return nil, errors.Errorf("unknown image %d", imageID)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	return data, nil
}
