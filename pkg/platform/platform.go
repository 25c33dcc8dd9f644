// Package platform describes the host the saver runs on: whether it offers
// scoped shared storage, and where its cache, pictures, and data directories
// live.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mangasaver/pkg/config"
)

// PicturesDirName is the standard name of the shared pictures collection
const PicturesDirName = "Pictures"

// Desktop is a Host backed by the local filesystem
type Desktop struct {
	apiLevel   int
	appName    string
	cacheDir   string
	volumeRoot string
	dataDir    string
}

// NewDesktop resolves every directory from cfg, falling back to the
// conventional per-OS locations for the ones left empty.
func NewDesktop(cfg *config.Config) (*Desktop, error) {
	appSlug := strings.ToLower(cfg.App.Name)

	cacheDir := cfg.Storage.CacheDir
	if cacheDir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
		}
		cacheDir = filepath.Join(userCache, appSlug, "images")
	}

	volumeRoot := cfg.Storage.VolumeRoot
	if volumeRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		volumeRoot = home
	}

	dataDir, err := dataDirectory(appSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	return &Desktop{
		apiLevel:   cfg.Platform.APILevel,
		appName:    cfg.App.Name,
		cacheDir:   cacheDir,
		volumeRoot: volumeRoot,
		dataDir:    dataDir,
	}, nil
}

// APILevel returns the configured platform API level
func (d *Desktop) APILevel() int {
	return d.apiLevel
}

// SupportsScopedStorage reports whether shared pictures must go through the
// media store rather than a direct path.
func (d *Desktop) SupportsScopedStorage() bool {
	return d.apiLevel >= config.ScopedStorageAPILevel
}

// CacheImageDir is the process-private directory for cached images
func (d *Desktop) CacheImageDir() string {
	return d.cacheDir
}

// PublicPicturesDir is the user-visible pictures directory on the primary volume
func (d *Desktop) PublicPicturesDir() string {
	return filepath.Join(d.volumeRoot, PicturesDirName)
}

// VolumeRoot is the root of the primary shared volume
func (d *Desktop) VolumeRoot() string {
	return d.volumeRoot
}

// AppName is the display string used for the app's pictures subfolder
func (d *Desktop) AppName() string {
	return d.appName
}

// IndexFile is where the media index is persisted, honouring an explicit
// path from cfg.
func (d *Desktop) IndexFile(cfg *config.Config) string {
	if cfg.Storage.IndexFile != "" {
		return cfg.Storage.IndexFile
	}
	return filepath.Join(d.dataDir, "media-index.json")
}

// dataDirectory returns the appropriate data directory for the current OS
func dataDirectory(appSlug string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appSlug), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appSlug), nil
	default:
		// XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, appSlug), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appSlug), nil
	}
}
