// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package site persists generated website artifacts on local disk. Each
// user owns one directory under the data root holding index.html,
// style.css, script.js, and an images/ subdirectory with uploaded files.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitesmith/internal/models"
	"sitesmith/internal/slug"
)

const (
	htmlFile = "index.html"
	cssFile  = "style.css"
	jsFile   = "script.js"
	imageDir = "images"

	maxStemLen = 40
)

// Store manages per-user site directories under a single root.
type Store struct {
	root string
}

// NewStore creates the data root if needed and returns a store rooted there.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve site root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create site root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute data root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the absolute directory for one user's site. The id is
// re-validated here so the store never joins an unsafe path segment,
// even if a caller skipped boundary validation.
func (s *Store) Dir(userID string) (string, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, userID), nil
}

// Load reads the three artifact files for a user. Missing files (or a
// missing user directory) yield the placeholder blobs, so callers always
// receive a renderable site.
func (s *Store) Load(userID string) (*models.Site, error) {
	dir, err := s.Dir(userID)
	if err != nil {
		return nil, err
	}

	out := models.DefaultSite()
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{htmlFile, &out.HTML},
		{cssFile, &out.CSS},
		{jsFile, &out.JS},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s for %s: %w", f.name, userID, err)
		}
		*f.dst = string(data)
	}
	return out, nil
}

// Save writes all three artifact files, replacing previous content
// wholesale. Each file is written to a temp file and renamed into place
// so a crash mid-write never leaves a truncated artifact.
func (s *Store) Save(userID string, site *models.Site) error {
	dir, err := s.Dir(userID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create site dir for %s: %w", userID, err)
	}

	for _, f := range []struct {
		name string
		data string
	}{
		{htmlFile, site.HTML},
		{cssFile, site.CSS},
		{jsFile, site.JS},
	} {
		if err := writeFileAtomic(filepath.Join(dir, f.name), []byte(f.data)); err != nil {
			return fmt.Errorf("write %s for %s: %w", f.name, userID, err)
		}
	}
	return nil
}

// SaveImage stores an uploaded image under the user's images/ directory
// and returns its record. The stored name combines a UTC timestamp, a
// random component, and a sanitized version of the original name, so
// concurrent uploads of identically named files never collide.
func (s *Store) SaveImage(userID, originalName string, data []byte) (*models.ImageRecord, error) {
	dir, err := s.Dir(userID)
	if err != nil {
		return nil, err
	}
	imgs := filepath.Join(dir, imageDir)
	if err := os.MkdirAll(imgs, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir for %s: %w", userID, err)
	}

	now := time.Now().UTC()
	stored := storedImageName(originalName, now)
	if err := writeFileAtomic(filepath.Join(imgs, stored), data); err != nil {
		return nil, fmt.Errorf("write image %s for %s: %w", stored, userID, err)
	}

	return &models.ImageRecord{
		StoredName:   stored,
		OriginalName: originalName,
		RelativeURL:  imageDir + "/" + stored,
		UploadedAt:   now,
	}, nil
}

// RemoveImage deletes a stored image binary. Missing files are not an
// error; the caller may be cleaning up after a partial upload.
func (s *Store) RemoveImage(userID, storedName string) error {
	path, err := s.ImagePath(userID, storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image %s for %s: %w", storedName, userID, err)
	}
	return nil
}

// ImagePath returns the absolute path of a stored image, rejecting names
// that could escape the images directory.
func (s *Store) ImagePath(userID, storedName string) (string, error) {
	dir, err := s.Dir(userID)
	if err != nil {
		return "", err
	}
	if storedName == "" || strings.ContainsAny(storedName, `/\`) || strings.Contains(storedName, "..") {
		return "", fmt.Errorf("invalid image name %q", storedName)
	}
	return filepath.Join(dir, imageDir, storedName), nil
}

// ImagesDir returns the absolute path of a user's image directory, which
// may not exist yet.
func (s *Store) ImagesDir(userID string) (string, error) {
	dir, err := s.Dir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, imageDir), nil
}

// Reset removes a user's entire site directory including all image
// binaries. The directory is renamed aside first, so the visible state
// flips to "no site" in one step even if the recursive delete is slow.
func (s *Store) Reset(userID string) error {
	dir, err := s.Dir(userID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	trash := dir + ".deleting-" + uuid.NewString()[:8]
	if err := os.Rename(dir, trash); err != nil {
		return fmt.Errorf("reset site for %s: %w", userID, err)
	}
	if err := os.RemoveAll(trash); err != nil {
		return fmt.Errorf("purge site for %s: %w", userID, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path. Rename within one directory is atomic on POSIX.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// extChars strips anything but alphanumerics from an extension.
var extChars = regexp.MustCompile(`[^a-z0-9]`)

// storedImageName builds a collision-resistant filename:
// 20260102T030405-a1b2c3-original-stem.png
func storedImageName(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))

	stem := slug.Generate(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "image"
	}
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}

	ext = extChars.ReplaceAllString(ext, "")
	if ext != "" {
		ext = "." + ext
	}

	return fmt.Sprintf("%s-%s-%s%s", now.Format("20060102T150405"), uuid.NewString()[:6], stem, ext)
}
