// Package thumbnail consumes queued image jobs and writes resized variants
// next to the original blobs, under the naming convention content retrieval
// resolves variants by.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// variantWidths maps each variant tag to the pixel width it is resized to.
// Height follows the aspect ratio.
var variantWidths = map[string]int{
	"small":  100,
	"medium": 250,
	"large":  500,
}

// Processor turns an original image into its named size variants.
type Processor struct{}

// NewProcessor creates a Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Variants decodes src and returns one resized rendition per variant tag,
// encoded in the format suggested by the node name's extension.
func (p *Processor) Variants(src []byte, name string) (map[string][]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("image decode error: %w", err)
	}

	format := strings.ToLower(filepath.Ext(name))

	out := make(map[string][]byte, len(variantWidths))
	for tag, width := range variantWidths {
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		buf := new(bytes.Buffer)
		if err := encodeImage(buf, resized, format); err != nil {
			return nil, fmt.Errorf("image encode error: %w", err)
		}
		out[tag] = buf.Bytes()
	}
	return out, nil
}

func encodeImage(buf *bytes.Buffer, img image.Image, format string) error {
	switch format {
	case ".jpg", ".jpeg":
		return jpeg.Encode(buf, img, nil)
	case ".png":
		return png.Encode(buf, img)
	case ".gif":
		return gif.Encode(buf, img, nil)
	default:
		return jpeg.Encode(buf, img, nil)
	}
}
