package store

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// decodeBitmap unpacks a bitmap payload: base64 of a zlib stream holding a PNG.
// The footprint is the alpha channel of a 4-channel PNG and the first channel
// otherwise.
//
// Arguments:
//   - encoded: The "data" field of a bitmap object.
//
// Returns:
//   - width, height: The footprint size.
//   - data: Row-major 0/1 footprint of width*height bytes.
//   - error: If any decoding step fails.
func decodeBitmap(encoded string) (width, height int, data []byte, err error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "decode base64")
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "open zlib stream")
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "inflate")
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadUnchanged)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "decode png")
	}
	defer mat.Close()
	if mat.Empty() {
		return 0, 0, nil, errors.New("decode png: empty image")
	}

	plane, err := footprintPlane(mat)
	if err != nil {
		return 0, 0, nil, err
	}
	defer plane.Close()

	data = plane.ToBytes()
	for i, v := range data {
		if v != 0 {
			data[i] = 1
		}
	}
	return plane.Cols(), plane.Rows(), data, nil
}

// footprintPlane returns a single-channel 8-bit copy of the channel holding the footprint.
func footprintPlane(mat gocv.Mat) (gocv.Mat, error) {
	if mat.Channels() == 1 {
		if mat.Type() != gocv.MatTypeCV8UC1 {
			return gocv.Mat{}, errors.Errorf("unsupported bitmap type %d", int(mat.Type()))
		}
		return mat.Clone(), nil
	}

	planes := gocv.Split(mat)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	idx := 0
	if len(planes) >= 4 {
		idx = 3
	}
	if planes[idx].Type() != gocv.MatTypeCV8UC1 {
		return gocv.Mat{}, errors.Errorf("unsupported bitmap type %d", int(mat.Type()))
	}
	return planes[idx].Clone(), nil
}
