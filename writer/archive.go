package writer

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// ArchiveDir packs src into a gzip-compressed tarball at dst. Entries are
// stored below the base name of src, in lexical walk order.
//
// Arguments:
//   - src: The directory to pack.
//   - dst: The archive path. It must not be inside src.
//
// Returns:
//   - error: If walking, reading or writing fails. A partial archive is removed.
//
// Example:
//
// ```go
//
//	if err := writer.ArchiveDir("out/cityscapes_format", "out/Cityscapes.tar.gz"); err != nil {
//	    return err
//	}
//
// ```
func ArchiveDir(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "stat archive source")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", src)
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close archive")
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	base := filepath.Base(filepath.Clean(src))
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return addEntry(tw, path, filepath.ToSlash(filepath.Join(base, rel)), d)
	})
	if err != nil {
		return errors.Wrap(err, "write archive")
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "finish tar stream")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "finish gzip stream")
	}
	return nil
}

func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if d.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !d.Type().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
