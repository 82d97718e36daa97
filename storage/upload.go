package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imgres/names"
)

// ErrNotImage is returned for uploads which are not recognizable images.
var ErrNotImage = errors.New("not an image")

const jpegQuality = 90

// Prepared is upload payload ready to be stored.
type Prepared struct {
	Data    []byte
	Format  string
	Width   int
	Height  int
	Resized bool
}

// UploadOptions controls image preparation.
type UploadOptions struct {
	// positive value limits either side of stored image, pixels
	MaxDimension int
	RasterizeSVG bool
}

// PrepareUpload detects image format from content and, when MaxDimension is
// positive, downscales image so neither side exceeds it. Animated images are
// never touched, vector ones are kept as is unless RasterizeSVG is set.
func PrepareUpload(data []byte, opts UploadOptions) (*Prepared, error) {
	p := &Prepared{Data: data}
	maxDim := opts.MaxDimension

	if isSVG(data) {
		p.Format = "svg"
		if !opts.RasterizeSVG {
			return p, nil
		}
		img, err := rasterizeSVG(data, maxDim)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotImage, err)
		}
		return encodePNG(p, img)
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil, ErrNotImage
	}
	format, ok := names.FormatFromMime(kind.MIME.Value)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, kind.MIME.Value)
	}
	p.Format = format

	cfg, imgType, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// formats Go cannot decode (avif, ico) are stored as is
		return p, nil
	}
	p.Width, p.Height = cfg.Width, cfg.Height

	if maxDim <= 0 || imgType == "gif" || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return p, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s image: %w", format, err)
	}
	img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	if imgType != "jpeg" {
		// no encoders for webp and friends, png is lossless
		return encodePNG(p, img)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("unable to encode resized image: %w", err)
	}
	p.Data, p.Resized = buf.Bytes(), true
	p.Width, p.Height = img.Bounds().Dx(), img.Bounds().Dy()
	return p, nil
}

func encodePNG(p *Prepared, img image.Image) (*Prepared, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	p.Data, p.Format, p.Resized = buf.Bytes(), "png", true
	p.Width, p.Height = img.Bounds().Dx(), img.Bounds().Dy()
	return p, nil
}

func isSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	head = bytes.TrimSpace(head)
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(head, []byte("<svg"))
}
