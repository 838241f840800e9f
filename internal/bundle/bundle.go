// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package bundle packs a user's site into a single downloadable zip
// archive: the three site files plus the uploaded images. The archive
// unpacks to a tree that opens locally, since the site references its
// assets by relative path.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sitesmith/internal/models"
)

// Build produces the archive for one site. imagesDir may be absent, in
// which case the archive carries only the three site files.
func Build(s *models.Site, imagesDir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []struct {
		name string
		data string
	}{
		{"index.html", s.HTML},
		{"style.css", s.CSS},
		{"script.js", s.JS},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.name, err)
		}
		if _, err := w.Write([]byte(f.data)); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.name, err)
		}
	}

	// The images directory is flat; entry names keep the images/ prefix
	// the generated html refers to.
	err := filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w, err := zw.Create("images/" + d.Name())
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		zw.Close()
		return nil, fmt.Errorf("bundle images: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("bundle close: %w", err)
	}
	return buf.Bytes(), nil
}
