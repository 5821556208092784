package imaging

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Info describes a decoded image. IsPortrait is derived from the
// EXIF-corrected dimensions: height strictly greater than width.
type Info struct {
	Width      int
	Height     int
	IsPortrait bool
}

// Probe decodes the image and reports its display dimensions. EXIF
// orientation is applied first so a rotated landscape shot is not
// misclassified as portrait.
func Probe(r io.Reader) (Info, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return Info{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	return Info{
		Width:      b.Dx(),
		Height:     b.Dy(),
		IsPortrait: b.Dy() > b.Dx(),
	}, nil
}

// Thumbnail renders a center-cropped JPEG thumbnail for the admin photo list.
func Thumbnail(r io.Reader, width, height int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
