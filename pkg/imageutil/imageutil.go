// Package imageutil identifies image formats from their leading bytes.
package imageutil

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// HeaderSize is the number of leading bytes FindImageType needs to decide
const HeaderSize = 3072

// ImageType describes a recognized image format
type ImageType struct {
	MIME      string
	Extension string
}

func (t ImageType) String() string {
	return t.MIME
}

var (
	AVIF = ImageType{MIME: "image/avif", Extension: "avif"}
	GIF  = ImageType{MIME: "image/gif", Extension: "gif"}
	HEIF = ImageType{MIME: "image/heif", Extension: "heif"}
	JPEG = ImageType{MIME: "image/jpeg", Extension: "jpg"}
	JXL  = ImageType{MIME: "image/jxl", Extension: "jxl"}
	PNG  = ImageType{MIME: "image/png", Extension: "png"}
	WEBP = ImageType{MIME: "image/webp", Extension: "webp"}
)

// byMIME maps detected MIME strings, aliases included, to known types
var byMIME = map[string]ImageType{
	"image/avif": AVIF,
	"image/gif":  GIF,
	"image/heif": HEIF,
	"image/heic": HEIF,
	"image/jpeg": JPEG,
	"image/jxl":  JXL,
	"image/png":  PNG,
	"image/webp": WEBP,
}

// FindImageType reports the image type of header, which should hold at least
// the first HeaderSize bytes of the data when that many are available.
func FindImageType(header []byte) (ImageType, bool) {
	if len(header) == 0 {
		return ImageType{}, false
	}

	// Walk from the most specific match up, so subtypes such as APNG resolve
	// to their base format.
	for m := mimetype.Detect(header); m != nil; m = m.Parent() {
		if t, ok := byMIME[m.String()]; ok {
			return t, true
		}
	}
	return ImageType{}, false
}

// ReadHeader reads up to HeaderSize bytes from r. A short read at EOF is not
// an error.
func ReadHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:n], err
}

// TypeForMIME returns the known image type for a MIME string
func TypeForMIME(mime string) (ImageType, bool) {
	t, ok := byMIME[mime]
	return t, ok
}
