// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging checks uploaded featured images before they are stored.
// The bytes must sniff as a raster image format the site can display and
// must decode to sane dimensions.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxPixels caps width*height so a tiny file cannot claim a huge canvas.
const MaxPixels = 100_000_000

var (
	ErrEmpty       = errors.New("image is empty")
	ErrTooLarge    = errors.New("image is too large")
	ErrNotAnImage  = errors.New("file is not an image")
	ErrUnsupported = errors.New("image format is not supported")
)

// allowedTypes are the formats featured images may use.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Info describes an accepted image.
type Info struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Inspect validates data as a featured image no bigger than maxBytes.
// maxBytes <= 0 disables the size check.
func Inspect(data []byte, maxBytes int64) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Info{}, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), maxBytes)
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Info{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, contentType)
	}
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: %dx%d", ErrUnsupported, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	return Info{
		ContentType: contentType,
		Ext:         ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
