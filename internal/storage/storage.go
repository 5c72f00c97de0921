package storage

import (
	"context"
	"errors"
	"mime/multipart"
)

var (
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
	ErrTooLarge        = errors.New("image exceeds the maximum upload size")
)

// Storage persists uploaded listing images and returns their public URLs.
type Storage interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Config holds storage configuration
type Config struct {
	BasePath string // directory files are written to
	BaseURL  string // public prefix the directory is served under
	MaxBytes int64
}

// allowedTypes maps sniffed MIME types to the extension files are stored with.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
