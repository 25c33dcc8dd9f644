package saver

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Location is where an image should end up: Cache or Pictures
type Location interface {
	isLocation()
}

// Cache is the process-private image cache
type Cache struct{}

func (Cache) isLocation() {}

// Pictures is the user-visible pictures folder of the app, optionally with a
// slash-separated subfolder.
type Pictures struct {
	RelativePath string
}

func (Pictures) isLocation() {}

// NewPictures returns a Pictures location under the joined relative path
// elements. With no arguments the app's pictures folder itself is used.
func NewPictures(relativePath ...string) Pictures {
	if len(relativePath) == 0 {
		return Pictures{}
	}
	return Pictures{RelativePath: path.Join(relativePath...)}
}

// Directory resolves loc to a filesystem directory on host
func Directory(loc Location, host Host) (string, error) {
	switch loc := loc.(type) {
	case Cache:
		return host.CacheImageDir(), nil
	case Pictures:
		rel, err := cleanRelativePath(loc.RelativePath)
		if err != nil {
			return "", err
		}
		dir := filepath.Join(host.PublicPicturesDir(), host.AppName())
		if rel != "" {
			dir = filepath.Join(dir, filepath.FromSlash(rel))
		}
		return dir, nil
	default:
		return "", fmt.Errorf("unsupported location %T", loc)
	}
}

// cleanRelativePath normalizes a Pictures subfolder and rejects paths that
// are absolute or climb out of the app's pictures folder.
func cleanRelativePath(rel string) (string, error) {
	if rel == "" {
		return "", nil
	}
	slashed := strings.ReplaceAll(rel, "\\", "/")
	if path.IsAbs(slashed) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("relative path %q must not be absolute", rel)
	}
	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("relative path %q leaves the pictures folder", rel)
	}
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}
