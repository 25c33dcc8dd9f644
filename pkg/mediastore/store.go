package mediastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"mangasaver/pkg/disk"
	"mangasaver/pkg/imageutil"
	"mangasaver/pkg/logger"
)

const (
	// Scheme and Authority of the URIs handed out for entries
	Scheme    = "content"
	Authority = "media"

	// ImagesPath is the collection path of the primary volume's images
	ImagesPath = "/external/images/media"

	indexVersion = 1
)

// ErrNotFound is returned for URIs that name no entry in the index
var ErrNotFound = errors.New("media entry not found")

// topLevelDirs are the primary-volume folders the images collection accepts
var topLevelDirs = map[string]bool{"DCIM": true, "Pictures": true}

// Entry is the request used to allocate a new media entry
type Entry struct {
	DisplayName  string
	MIMEType     string
	RelativePath string
}

// Record is an indexed media file
type Record struct {
	ID           int64     `json:"id"`
	DisplayName  string    `json:"display_name"`
	MIMEType     string    `json:"mime_type"`
	RelativePath string    `json:"relative_path"`
	Data         string    `json:"data"`
	Size         int64     `json:"size"`
	Scanned      bool      `json:"scanned"`
	DateAdded    time.Time `json:"date_added"`
	DateModified time.Time `json:"date_modified"`
}

// URI returns the content URI naming this record
func (r *Record) URI() *url.URL {
	return &url.URL{
		Scheme: Scheme,
		Host:   Authority,
		Path:   ImagesPath + "/" + strconv.FormatInt(r.ID, 10),
	}
}

type index struct {
	Version int       `json:"version"`
	NextID  int64     `json:"next_id"`
	Records []*Record `json:"records"`
}

// Store is a media index over one shared volume, persisted as a JSON file.
// It is safe for concurrent use, including by several processes sharing the
// same index file.
type Store struct {
	volumeRoot string
	indexPath  string
	logger     logger.Logger
	fileLock   *flock.Flock

	mu  sync.Mutex
	idx index
}

// lockRetryDelay is how often a busy index lock is retried
const lockRetryDelay = 20 * time.Millisecond

// Open loads the index at indexPath, creating an empty one if the file does
// not exist yet.
func Open(volumeRoot, indexPath string, log logger.Logger) (*Store, error) {
	absRoot, err := filepath.Abs(volumeRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve volume root: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	s := &Store{
		volumeRoot: absRoot,
		indexPath:  indexPath,
		logger:     log.WithField("component", "mediastore"),
		fileLock:   flock.New(indexPath + ".lock"),
		idx:        emptyIndex(),
	}

	if err := s.withIndex(context.Background(), func() error { return nil }); err != nil {
		return nil, err
	}

	logger.LogComponentStart(log, "mediastore", map[string]interface{}{
		"volume_root": absRoot,
		"index":       indexPath,
		"entries":     len(s.idx.Records),
	})
	return s, nil
}

func emptyIndex() index {
	return index{Version: indexVersion, NextID: 1}
}

// withIndex runs fn holding the in-process mutex and the index lock file,
// with s.idx freshly loaded from disk.
func (s *Store) withIndex(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock index: %w", err)
	}
	if !locked {
		return errors.New("failed to lock index")
	}
	defer s.fileLock.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	return fn()
}

// commit persists next and makes it the current index; the caller is inside
// withIndex. s.idx is left untouched if the write fails.
func (s *Store) commit(next index) error {
	if err := s.write(next); err != nil {
		return err
	}
	s.idx = next
	return nil
}

// with returns a copy of the current index whose record list has rec at
// position i, or appended when i is out of range.
func (s *Store) with(i int, rec *Record) index {
	next := s.idx
	next.Records = append([]*Record(nil), s.idx.Records...)
	if i >= 0 && i < len(next.Records) {
		next.Records[i] = rec
	} else {
		next.Records = append(next.Records, rec)
	}
	return next
}

// Insert allocates a new entry and reserves its file on the volume. The file
// name is the display name plus the MIME type's extension, suffixed with
// " (n)" if the name is already taken in that folder.
func (s *Store) Insert(ctx context.Context, e Entry) (*url.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imageType, ok := imageutil.TypeForMIME(e.MIMEType)
	if !ok {
		return nil, fmt.Errorf("unsupported mime type %q", e.MIMEType)
	}
	if strings.TrimSpace(e.DisplayName) == "" {
		return nil, errors.New("display name is required")
	}
	relPath, err := cleanRelativePath(e.RelativePath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.volumeRoot, filepath.FromSlash(relPath))
	base := disk.BuildValidFilename(e.DisplayName)
	ext := "." + imageType.Extension
	if strings.EqualFold(filepath.Ext(base), ext) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var uri *url.URL
	err = s.withIndex(ctx, func() error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		file, dataPath, err := s.reserve(dir, base, ext)
		if err != nil {
			return err
		}
		file.Close()

		now := time.Now()
		rec := &Record{
			ID:           s.idx.NextID,
			DisplayName:  filepath.Base(dataPath),
			MIMEType:     imageType.MIME,
			RelativePath: relPath + "/",
			Data:         dataPath,
			DateAdded:    now,
			DateModified: now,
		}
		next := s.with(-1, rec)
		next.NextID++

		if err := s.commit(next); err != nil {
			os.Remove(dataPath)
			return err
		}

		s.logger.DebugWithFields("Media entry created", map[string]interface{}{
			"id":   rec.ID,
			"data": rec.Data,
		})
		uri = rec.URI()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uri, nil
}

// reserve creates the first free "base ext", "base (1)ext", ... in dir
func (s *Store) reserve(dir, base, ext string) (*os.File, string, error) {
	for n := 0; n < 1000; n++ {
		name := base + ext
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		candidate := filepath.Join(dir, name)
		if _, rec := s.findByData(candidate); rec != nil {
			continue
		}

		file, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file: %w", err)
		}
		return file, candidate, nil
	}
	return nil, "", fmt.Errorf("no free file name for %q in %s", base+ext, dir)
}

// OpenOutputStream opens the entry's file for writing. Supported modes are
// "w" and "wt" (truncate) and "wa" (append).
func (s *Store) OpenOutputStream(ctx context.Context, uri *url.URL, mode string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var flags int
	switch mode {
	case "w", "wt":
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "wa":
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}

	rec, err := s.Get(ctx, uri)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(rec.Data, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", rec.Data, err)
	}
	return file, nil
}

// ScanMedia refreshes the index for uri. Content URIs update their entry's
// size and modification time. File URIs under an allowed top-level folder of
// the volume are added or refreshed; other files are ignored.
func (s *Store) ScanMedia(ctx context.Context, uri *url.URL) {
	if uri == nil {
		s.logger.Warn("Media scan requested without a uri")
		return
	}
	log := s.logger.WithField("uri", uri.String())
	if err := s.scan(ctx, uri); err != nil {
		log.WithError(err).Warn("Media scan failed")
		return
	}
	log.Debug("Media scanned")
}

func (s *Store) scan(ctx context.Context, uri *url.URL) error {
	switch uri.Scheme {
	case Scheme:
		id, err := ParseID(uri)
		if err != nil {
			return err
		}

		return s.withIndex(ctx, func() error {
			i, rec := s.findByID(id)
			if rec == nil {
				return ErrNotFound
			}
			updated := *rec
			if err := refresh(&updated); err != nil {
				return err
			}
			return s.commit(s.with(i, &updated))
		})

	case "file":
		dataPath := filepath.Clean(filepath.FromSlash(uri.Path))
		rel, ok := s.sharedPath(dataPath)
		if !ok {
			s.logger.WithField("path", dataPath).Debug("File is not in a shared media folder, skipping scan")
			return nil
		}

		imageType, err := sniffFile(dataPath)
		if err != nil {
			return err
		}

		return s.withIndex(ctx, func() error {
			i, rec := s.findByData(dataPath)
			var updated Record
			if rec != nil {
				updated = *rec
			} else {
				updated = Record{
					ID:           s.idx.NextID,
					DisplayName:  filepath.Base(dataPath),
					RelativePath: path.Dir(rel) + "/",
					Data:         dataPath,
					DateAdded:    time.Now(),
				}
			}
			updated.MIMEType = imageType.MIME
			if err := refresh(&updated); err != nil {
				return err
			}

			next := s.with(i, &updated)
			if rec == nil {
				next.NextID++
			}
			return s.commit(next)
		})

	default:
		return fmt.Errorf("unsupported uri scheme %q", uri.Scheme)
	}
}

// sharedPath returns p relative to the volume root, in slash form, when p
// lies in one of the top-level folders the images collection accepts.
func (s *Store) sharedPath(p string) (string, bool) {
	rel, err := filepath.Rel(s.volumeRoot, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) < 2 || !topLevelDirs[parts[0]] {
		return "", false
	}
	return rel, true
}

// refresh restats rec's file
func refresh(rec *Record) error {
	info, err := os.Stat(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", rec.Data, err)
	}
	rec.Size = info.Size()
	rec.DateModified = info.ModTime()
	rec.Scanned = true
	return nil
}

// Get returns a copy of the record named by uri
func (s *Store) Get(ctx context.Context, uri *url.URL) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := ParseID(uri)
	if err != nil {
		return nil, err
	}

	var cp Record
	err = s.withIndex(ctx, func() error {
		_, rec := s.findByID(id)
		if rec == nil {
			return ErrNotFound
		}
		cp = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// List returns copies of all records in insertion order
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Record
	err := s.withIndex(ctx, func() error {
		out = make([]Record, 0, len(s.idx.Records))
		for _, rec := range s.idx.Records {
			out = append(out, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the entry and then its file. The entry stays indexed if
// the index cannot be written.
func (s *Store) Delete(ctx context.Context, uri *url.URL) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := ParseID(uri)
	if err != nil {
		return err
	}

	var removed *Record
	err = s.withIndex(ctx, func() error {
		i, rec := s.findByID(id)
		if rec == nil {
			return ErrNotFound
		}

		next := s.idx
		next.Records = make([]*Record, 0, len(s.idx.Records)-1)
		next.Records = append(next.Records, s.idx.Records[:i]...)
		next.Records = append(next.Records, s.idx.Records[i+1:]...)
		if err := s.commit(next); err != nil {
			return err
		}
		removed = rec
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.Remove(removed.Data); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("entry removed but failed to delete file: %w", err)
	}
	return nil
}

// ParseID extracts the entry id from a content URI of the images collection
func ParseID(uri *url.URL) (int64, error) {
	if uri == nil || uri.Scheme != Scheme || uri.Host != Authority {
		return 0, fmt.Errorf("not a media uri: %v", uri)
	}
	dir, last := path.Split(uri.Path)
	if path.Clean(dir) != ImagesPath {
		return 0, fmt.Errorf("not an images uri: %s", uri)
	}
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid media id in %s", uri)
	}
	return id, nil
}

// cleanRelativePath normalizes a slash-separated path relative to the volume
// root and checks it lands in a folder the images collection accepts.
func cleanRelativePath(rel string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.New("relative path is required")
	}
	top := strings.SplitN(cleaned, "/", 2)[0]
	if !topLevelDirs[top] {
		return "", fmt.Errorf("relative path %q is not in an allowed folder", rel)
	}
	return cleaned, nil
}

func sniffFile(p string) (imageutil.ImageType, error) {
	file, err := os.Open(p)
	if err != nil {
		return imageutil.ImageType{}, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer file.Close()

	header, err := imageutil.ReadHeader(file)
	if err != nil {
		return imageutil.ImageType{}, fmt.Errorf("failed to read %s: %w", p, err)
	}
	imageType, ok := imageutil.FindImageType(header)
	if !ok {
		return imageutil.ImageType{}, fmt.Errorf("%s is not an image", p)
	}
	return imageType, nil
}

func (s *Store) findByID(id int64) (int, *Record) {
	for i, rec := range s.idx.Records {
		if rec.ID == id {
			return i, rec
		}
	}
	return -1, nil
}

func (s *Store) findByData(p string) (int, *Record) {
	for i, rec := range s.idx.Records {
		if rec.Data == p {
			return i, rec
		}
	}
	return -1, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.idx = emptyIndex()
			return nil
		}
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var idx index
	if err := json.NewDecoder(file).Decode(&idx); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}
	if idx.Version != indexVersion {
		return fmt.Errorf("unsupported index version %d", idx.Version)
	}
	if idx.NextID < 1 {
		idx.NextID = 1
	}
	s.idx = idx
	return nil
}

// write stores idx on disk atomically
func (s *Store) write(idx index) error {
	tempPath := s.indexPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary index file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&idx); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync index file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tempPath, s.indexPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}
