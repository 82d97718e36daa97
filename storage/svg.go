package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// used when viewBox carries no size
const defaultSVGSize = 512

// upper bound for either side of rasterized image, huge viewBox values
// would otherwise allocate gigabytes
var maxRasterDim = 4096

// rasterizeSVG renders SVG into transparent RGBA image of intrinsic size,
// fitted into maxDim box when it is positive.
func rasterizeSVG(data []byte, maxDim int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse svg: %w", err)
	}

	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = defaultSVGSize
	}
	if h <= 0 {
		h = defaultSVGSize
	}

	limit := maxRasterDim
	if maxDim > 0 {
		limit = min(limit, maxDim)
	}
	if w > limit || h > limit {
		s := min(float64(limit)/float64(w), float64(limit)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
