package saver

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// CoverQuality is the JPEG quality covers are encoded at
const CoverQuality = 100

// Image is an image to be saved. It is either a Cover or a Page.
type Image interface {
	DisplayName() string
	Destination() Location
	isImage()
}

// Cover is a decoded bitmap that is encoded as JPEG when saved
type Cover struct {
	Bitmap   image.Image
	Name     string
	Location Location
}

func (c Cover) DisplayName() string   { return c.Name }
func (c Cover) Destination() Location { return c.Location }
func (Cover) isImage()                {}

// Page is an already encoded image whose bytes are read from Open. Each call
// to Open must return a fresh stream positioned at the start.
type Page struct {
	Open     func() (io.ReadCloser, error)
	Name     string
	Location Location
}

func (p Page) DisplayName() string   { return p.Name }
func (p Page) Destination() Location { return p.Location }
func (Page) isImage()                {}

// Data returns a factory for img's encoded bytes. For a Cover every call
// encodes the bitmap again into a new buffer; for a Page it is Open itself.
func Data(img Image) (func() (io.ReadCloser, error), error) {
	switch img := img.(type) {
	case Cover:
		if img.Bitmap == nil {
			return nil, errors.New("cover has no bitmap")
		}
		bitmap := img.Bitmap
		return func() (io.ReadCloser, error) {
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, bitmap, imaging.JPEG, imaging.JPEGQuality(CoverQuality)); err != nil {
				return nil, fmt.Errorf("failed to encode cover: %w", err)
			}
			return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
		}, nil
	case Page:
		if img.Open == nil {
			return nil, errors.New("page has no data source")
		}
		return img.Open, nil
	default:
		return nil, fmt.Errorf("unsupported image %T", img)
	}
}
