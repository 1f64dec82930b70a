package imagechat

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxReferenceImageSize is the upper bound for a user-picked reference image.
const MaxReferenceImageSize = 10 * 1024 * 1024

var validImageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ReadImageFile converts a user-picked local image file into a data-URI
// reference usable as an image-to-image input. Rejects non-image files with
// ErrInvalidImageFile and files over MaxReferenceImageSize with
// ErrImageTooLarge.
func ReadImageFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading image file: %w", err)
	}
	if info.Size() > MaxReferenceImageSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, info.Size(), MaxReferenceImageSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image file: %w", err)
	}
	return EncodeImageData(data, mimeTypeFor(path, data))
}

// EncodeImageData builds a data-URI reference from raw image bytes. The MIME
// type must be one of the supported image types.
func EncodeImageData(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidImageFile)
	}
	if len(data) > MaxReferenceImageSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(data), MaxReferenceImageSize)
	}
	if !validImageMIMETypes[mimeType] {
		return "", fmt.Errorf("%w: %s", ErrInvalidImageFile, mimeType)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// mimeTypeFor resolves the MIME type from the file extension, falling back to
// content sniffing for unrecognized extensions.
func mimeTypeFor(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return http.DetectContentType(data)
	}
}
