// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded images and prepares downscaled JPEG
// payloads for vision model calls. Decoding is pure Go: JPEG, PNG, GIF,
// and WebP are supported.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// maxImagePixels caps decoded size to block decompression bombs.
	maxImagePixels = 100_000_000

	// visionMaxEdge bounds the longest edge of payloads sent to vision
	// models. Larger inputs are scaled down before encoding.
	visionMaxEdge = 1024

	visionQuality = 80
)

// ErrUnsupportedType is returned when uploaded bytes are not one of the
// supported web image formats.
var ErrUnsupportedType = errors.New("unsupported image type")

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Detect sniffs the content type from the first 512 bytes and verifies
// it is a supported image format.
func Detect(data []byte) (string, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if !allowedImageTypes[ct] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, nil
}

// Dimensions reads the image header and returns width and height,
// enforcing the decompression-bomb cap.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return 0, 0, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}
	return cfg.Width, cfg.Height, nil
}

// PrepareForVision re-encodes an uploaded image as a JPEG whose longest
// edge is at most 1024 pixels. The output is what gets embedded in
// vision model requests; re-encoding also drops any metadata carried by
// the upload.
func PrepareForVision(data []byte) ([]byte, error) {
	if _, err := Detect(data); err != nil {
		return nil, err
	}
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if longest := max(w, h); longest > visionMaxEdge {
		scale := float64(visionMaxEdge) / float64(longest)
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: visionQuality}); err != nil {
		return nil, fmt.Errorf("encode vision payload: %w", err)
	}
	return buf.Bytes(), nil
}
