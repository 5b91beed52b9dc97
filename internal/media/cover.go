package media

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"merlin-playlist/internal/filesystem"
	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/mediatypes"
	"merlin-playlist/internal/metrics"
)

// Device image sizes.
const (
	CoverSize   = 128
	IconSize    = 40
	JPEGQuality = 75
)

var (
	// ErrNotAnImage is returned for cover sources without an image extension.
	ErrNotAnImage = errors.New("not an image")
	// ErrInvalidKey is returned for uuids that cannot name a file.
	ErrInvalidKey = errors.New("uuid cannot be used as a file name")
	// ErrNoCover is returned when a node has no cover file yet.
	ErrNoCover = errors.New("no cover image")
)

// CoverMaker writes device covers into the playlist directory and keeps a
// cache of small icons for user interfaces.
type CoverMaker struct {
	playlistDir string
	iconDir     string
	mu          sync.Mutex
}

// NewCoverMaker creates a CoverMaker. Icons are cached under iconDir; an
// empty iconDir renders every icon on demand.
func NewCoverMaker(playlistDir, iconDir string) *CoverMaker {
	if iconDir != "" {
		if err := os.MkdirAll(iconDir, 0o755); err != nil {
			logging.Warn("CoverMaker: failed to create icon cache dir: %v", err)
		}
	}
	return &CoverMaker{playlistDir: playlistDir, iconDir: iconDir}
}

func validKey(uuid string) error {
	if uuid == "" || uuid == "." || uuid == ".." || strings.ContainsAny(uuid, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, uuid)
	}
	return nil
}

// CoverPath returns where the cover for uuid is stored.
func (c *CoverMaker) CoverPath(uuid string) string {
	return filepath.Join(c.playlistDir, uuid+".jpg")
}

func (c *CoverMaker) iconPath(uuid string) string {
	return filepath.Join(c.iconDir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(uuid))))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over a white background so transparent sources do not
// end up black once encoded as JPEG.
func flatten(img image.Image) *image.NRGBA {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func observe(kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ImageGenerationsTotal.WithLabelValues(kind, status).Inc()
	metrics.ImageGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// CreateCover converts src into a square device cover named after uuid and
// returns the file name relative to the playlist directory.
func (c *CoverMaker) CreateCover(src, uuid string) (name string, err error) {
	start := time.Now()
	defer func() { observe("cover", start, err) }()

	if err := validKey(uuid); err != nil {
		return "", err
	}
	if !mediatypes.IsImage(src) {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, filepath.Base(src))
	}
	if _, err := GetImageDimensions(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %v", ErrNotAnImage, filepath.Base(src), err)
	}

	img, err := LoadImageConstrained(src, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return "", err
	}
	cover := imaging.Resize(flatten(img), CoverSize, CoverSize, imaging.Lanczos)
	data, err := encodeJPEG(cover)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := filesystem.WriteFileAtomic(c.CoverPath(uuid), data, 0o644); err != nil {
		return "", err
	}
	c.dropIcon(uuid)
	logging.Debug("CoverMaker: wrote cover for %s from %s", uuid, src)
	return uuid + ".jpg", nil
}

// RemoveCover deletes the cover and cached icon of uuid. Missing files are
// not an error.
func (c *CoverMaker) RemoveCover(uuid string) error {
	if err := validKey(uuid); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropIcon(uuid)
	if err := os.Remove(c.CoverPath(uuid)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *CoverMaker) dropIcon(uuid string) {
	if err := os.Remove(c.iconPath(uuid)); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("CoverMaker: failed to remove cached icon for %s: %v", uuid, err)
	}
}

// Icon returns a small JPEG of the cover of uuid, generating and caching it
// on first use.
func (c *CoverMaker) Icon(uuid string) ([]byte, error) {
	if err := validKey(uuid); err != nil {
		return nil, err
	}
	coverPath := c.CoverPath(uuid)
	coverInfo, err := filesystem.StatWithRetry(coverPath, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCover, uuid)
		}
		return nil, err
	}

	if c.iconDir == "" {
		start := time.Now()
		data, err := c.renderIcon(coverPath)
		observe("icon", start, err)
		return data, err
	}

	cachePath := c.iconPath(uuid)
	if data, ok := c.cached(cachePath, coverInfo.ModTime()); ok {
		metrics.IconCacheHits.Inc()
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have generated it while we waited.
	if data, ok := c.cached(cachePath, coverInfo.ModTime()); ok {
		metrics.IconCacheHits.Inc()
		return data, nil
	}
	metrics.IconCacheMisses.Inc()

	start := time.Now()
	data, err := c.renderIcon(coverPath)
	observe("icon", start, err)
	if err != nil {
		return nil, err
	}
	if err := filesystem.WriteFileAtomic(cachePath, data, 0o644); err != nil {
		logging.Warn("CoverMaker: failed to cache icon for %s: %v", uuid, err)
	}
	return data, nil
}

func (c *CoverMaker) cached(path string, notBefore time.Time) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || info.ModTime().Before(notBefore) {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *CoverMaker) renderIcon(coverPath string) ([]byte, error) {
	img, err := imaging.Open(coverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cover: %w", err)
	}
	return encodeJPEG(imaging.Fit(img, IconSize, IconSize, imaging.Lanczos))
}

// ClearIcons empties the icon cache and returns how many files were removed.
func (c *CoverMaker) ClearIcons() (int, error) {
	if c.iconDir == "" {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.iconDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		if err := os.Remove(filepath.Join(c.iconDir, e.Name())); err != nil {
			logging.Warn("CoverMaker: failed to remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	logging.Info("CoverMaker: cleared %d cached icons", removed)
	return removed, nil
}
