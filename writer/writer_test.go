package writer

import (
	"archive/tar"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/nvr-ai/go-cityscapes/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSWritesBelowRoot(t *testing.T) {
	root := t.TempDir()
	w := NewFS(root)

	mask, err := images.NewLabelMask(3, 4)
	require.NoError(t, err)
	defer mask.Close()

	require.NoError(t, w.WriteMask("gtFine/train/ds/a_gtFine_labelIds.png", mask))
	require.NoError(t, w.WriteJSON("gtFine/train/ds/a_gtFine_polygons.json", map[string]int{"imgHeight": 3}))
	require.NoError(t, w.WriteImage("leftImg8bit/train/ds/a_leftImg8bit.jpg", []byte("jpeg")))

	f, err := os.Open(filepath.Join(root, "gtFine", "train", "ds", "a_gtFine_labelIds.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	data, err := os.ReadFile(filepath.Join(root, "gtFine", "train", "ds", "a_gtFine_polygons.json"))
	require.NoError(t, err)
	var doc map[string]int
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc["imgHeight"])

	data, err = os.ReadFile(filepath.Join(root, "leftImg8bit", "train", "ds", "a_leftImg8bit.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestFSErrors(t *testing.T) {
	root := t.TempDir()
	w := NewFS(root)

	assert.Error(t, w.WriteMask("a.png", nil))
	assert.Error(t, w.WriteJSON("a.json", make(chan int)))

	// a file where a directory is needed
	require.NoError(t, os.WriteFile(filepath.Join(root, "gtFine"), nil, 0o644))
	assert.Error(t, w.WriteImage("gtFine/train/a.png", []byte{1}))
}

func TestArchiveDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cityscapes_format")
	w := NewFS(src)
	require.NoError(t, w.WriteImage("leftImg8bit/train/ds/a_leftImg8bit.png", []byte("img")))
	require.NoError(t, w.WriteJSON("class_to_id.json", []int{1}))

	dst := filepath.Join(t.TempDir(), "Cityscapes.tar.gz")
	require.NoError(t, ArchiveDir(src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	contents := map[string]string{}
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			body, err := io.ReadAll(tr)
			require.NoError(t, err)
			contents[hdr.Name] = string(body)
		}
	}

	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "cityscapes_format/")
	assert.Contains(t, names, "cityscapes_format/leftImg8bit/train/ds/")
	assert.Equal(t, "img", contents["cityscapes_format/leftImg8bit/train/ds/a_leftImg8bit.png"])
	assert.JSONEq(t, "[1]", contents["cityscapes_format/class_to_id.json"])
}

func TestArchiveDirErrors(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.tar.gz")

	assert.Error(t, ArchiveDir(filepath.Join(dir, "missing"), dst))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, ArchiveDir(file, dst))

	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}
