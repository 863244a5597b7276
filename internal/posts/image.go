package posts

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"aslipolitik/internal/apperr"
	"aslipolitik/internal/imaging"
)

// DefaultMaxImageBytes is the upload limit when none is configured (5 MB).
const DefaultMaxImageBytes = 5 << 20

// MaxImageBytes returns the effective upload limit.
func (svc *Service) MaxImageBytes() int64 {
	if svc.maxImageBytes > 0 {
		return svc.maxImageBytes
	}
	return DefaultMaxImageBytes
}

// UploadImage checks data as a featured image and stores it under a fresh
// random name. It returns the public URL to put in a post's featured_image.
// Rejected files come back as an apperr.ValidationError on field "image".
func (svc *Service) UploadImage(ctx context.Context, data []byte) (string, error) {
	if svc.objects == nil {
		return "", ErrStorageDisabled
	}

	info, err := imaging.Inspect(data, svc.MaxImageBytes())
	if err != nil {
		return "", apperr.Invalid("image", imageMessage(err, svc.MaxImageBytes()))
	}

	name, err := imageName(info.Ext, time.Now())
	if err != nil {
		return "", err
	}

	url, err := svc.objects.UploadObject(ctx, data, name, info.ContentType)
	if err != nil {
		return "", err
	}
	slog.Info("image uploaded", "name", name, "type", info.ContentType, "bytes", len(data),
		"width", info.Width, "height", info.Height)
	return url, nil
}

// imageName builds "<random base36>-<unix ms><ext>".
func imageName(ext string, now time.Time) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate image name: %w", err)
	}
	random := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	return random + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext, nil
}

func imageMessage(err error, limit int64) string {
	switch {
	case errors.Is(err, imaging.ErrEmpty):
		return "is empty"
	case errors.Is(err, imaging.ErrTooLarge):
		return fmt.Sprintf("must be smaller than %d MB", limit>>20)
	case errors.Is(err, imaging.ErrNotAnImage):
		return "must be an image file"
	case errors.Is(err, imaging.ErrUnsupported):
		return "must be a JPEG, PNG, GIF or WebP image"
	default:
		return "could not be read as an image"
	}
}
