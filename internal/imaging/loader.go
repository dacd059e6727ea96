package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// LoadImage loads and decodes a training frame from disk.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats
//     are PNG and JPEG; training frames are PNG in practice.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the
//     encoder that produced the file (e.g., *image.NRGBA, *image.RGBA).
//   - error: Non-nil if the file cannot be opened or decoded. Decode errors
//     name the offending path, since a single unreadable frame aborts a
//     training run.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// ToNRGBA normalizes any decoded image to 8-bit straight-alpha RGBA, the
// working representation for masking and augmentation. The result is always
// a fresh copy with bounds anchored at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the image format by file extension: "png", "jpeg", or
	// "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns its metadata along with the
// decoded pixels. The preview tool reports this per input frame.
func LoadImageInfo(path string) (image.Image, *ImageInfo, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch filepath.Ext(path) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	}

	bounds := img.Bounds()
	return img, &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
