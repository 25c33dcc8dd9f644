package saver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"mangasaver/pkg/disk"
	saveerrors "mangasaver/pkg/errors"
	"mangasaver/pkg/imageutil"
	"mangasaver/pkg/logger"
	"mangasaver/pkg/mediastore"
	"mangasaver/pkg/platform"
)

// Strategy names, as they appear in logs
const (
	StrategyDirect     = "direct"
	StrategyMediaStore = "media_store"
)

// Saver writes images to the cache or to shared pictures storage
type Saver struct {
	host    Host
	store   MediaStore
	scanner disk.MediaScanner
	logger  logger.Logger

	// Detect and Sanitize default to imageutil.FindImageType and
	// disk.BuildValidFilename.
	Detect   func(header []byte) (imageutil.ImageType, bool)
	Sanitize func(name string) string
}

// New creates a Saver. store is only used on hosts with scoped storage.
func New(host Host, store MediaStore, scanner disk.MediaScanner, log logger.Logger) *Saver {
	return &Saver{
		host:     host,
		store:    store,
		scanner:  scanner,
		logger:   log.WithField("component", "saver"),
		Detect:   imageutil.FindImageType,
		Sanitize: disk.BuildValidFilename,
	}
}

// Save persists img and returns a URI for the saved file. On hosts without
// scoped storage, and for the Cache location, the bytes go to a file in the
// resolved directory (replacing any file of the same name). Pictures on a
// scoped-storage host go through the media store. Either way the media
// scanner is told about the new file.
func (s *Saver) Save(ctx context.Context, img Image) (*url.URL, error) {
	if img == nil {
		return nil, errors.New("no image to save")
	}
	name := img.DisplayName()
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("image name is required")
	}

	loc := img.Destination()
	pictures, isPictures := loc.(Pictures)
	if _, isCache := loc.(Cache); !isPictures && !isCache {
		return nil, fmt.Errorf("unsupported location %T", loc)
	}
	if isPictures {
		rel, err := cleanRelativePath(pictures.RelativePath)
		if err != nil {
			return nil, err
		}
		pictures.RelativePath = rel
		loc = pictures
	}

	data, err := Data(img)
	if err != nil {
		return nil, err
	}

	src, err := data()
	if err != nil {
		return nil, saveerrors.IO("failed to open image data", err)
	}
	defer src.Close()

	// The header is peeked, not consumed, so the same stream is copied in full.
	r := bufio.NewReaderSize(src, imageutil.HeaderSize)
	header, err := r.Peek(imageutil.HeaderSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, saveerrors.IO("failed to read image data", err)
	}

	imageType, ok := s.Detect(header)
	if !ok {
		return nil, saveerrors.UnrecognizedFormat("not an image")
	}
	filename := s.Sanitize(name + "." + imageType.Extension)

	log := s.logger.WithFields(map[string]interface{}{
		"name": name,
		"mime": imageType.MIME,
	})

	if !s.host.SupportsScopedStorage() || !isPictures {
		dir, err := Directory(loc, s.host)
		if err != nil {
			return nil, err
		}
		uri, err := s.saveToDirectory(ctx, r, dir, filename)
		logger.LogSave(log, StrategyDirect, filename, uriOrNil(uri), err)
		return uri, err
	}

	uri, err := s.saveToMediaStore(ctx, r, name, pictures.RelativePath, imageType)
	logger.LogSave(log, StrategyMediaStore, filename, uriOrNil(uri), err)
	return uri, err
}

// saveToDirectory streams r into dir/filename. The bytes land in a temporary
// sibling first and replace the destination only once fully written.
func (s *Saver) saveToDirectory(ctx context.Context, r io.Reader, dir, filename string) (*url.URL, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, saveerrors.IO("failed to create directory", err)
	}

	dest := filepath.Join(dir, filename)
	tempFile := filepath.Join(dir, "."+filename+"."+uuid.NewString()+".tmp")

	out, err := os.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, saveerrors.IO("failed to create temporary file", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return nil, saveerrors.IO("failed to write image data", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return nil, saveerrors.IO("failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, dest); err != nil {
		os.Remove(tempFile)
		return nil, saveerrors.IO("failed to rename temporary file", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return nil, saveerrors.IO("failed to resolve saved file", err)
	}
	uri := FileURI(abs)

	s.scanner.ScanMedia(ctx, uri)
	return uri, nil
}

// saveToMediaStore allocates an entry under Pictures/<app>/<relativePath>
// and streams r into it. An entry that cannot be opened for writing is left
// in the store.
func (s *Saver) saveToMediaStore(ctx context.Context, r io.Reader, name, relativePath string, imageType imageutil.ImageType) (*url.URL, error) {
	entry := mediastore.Entry{
		DisplayName:  name,
		MIMEType:     imageType.MIME,
		RelativePath: path.Join(platform.PicturesDirName, s.host.AppName(), relativePath),
	}

	uri, err := s.store.Insert(ctx, entry)
	if err != nil {
		return nil, saveerrors.EntryAllocation("could not create entry", err)
	}
	if uri == nil {
		return nil, saveerrors.EntryAllocation("could not create entry", nil)
	}

	out, err := s.store.OpenOutputStream(ctx, uri, "w")
	if err != nil || out == nil {
		return nil, saveerrors.MissingOutputChannel("no output stream for "+uri.String(), err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		return nil, saveerrors.IO("failed to write image data", err)
	}
	if closeErr != nil {
		return nil, saveerrors.IO("failed to close output stream", closeErr)
	}

	s.scanner.ScanMedia(ctx, uri)
	return uri, nil
}

// FileURI returns the file:// URI of an absolute path
func FileURI(abs string) *url.URL {
	p := filepath.ToSlash(abs)
	if runtime.GOOS == "windows" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: p}
}

// uriOrNil keeps a nil *url.URL from becoming a non-nil fmt.Stringer
func uriOrNil(uri *url.URL) fmt.Stringer {
	if uri == nil {
		return nil
	}
	return uri
}
