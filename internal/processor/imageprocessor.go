// imageprocessor.go - Scan cleanup before image pages are folded into a PDF

package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bosocmputer/tax_recon_ai/configs"
	"github.com/disintegration/imaging"
)

// imageExtensions are the raster formats the merger converts to PDF pages
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
}

// IsImageFile reports whether the path looks like a raster scan rather than a PDF
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// PrepareScan cleans up one scanned page for archival: downscale oversized
// scans, then grayscale + sharpen + contrast to keep merged PDFs readable.
// Writes the result to dstPath. When preprocessing is disabled via config,
// only the resize cap applies.
func PrepareScan(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open scan: %w", err)
	}

	bounds := img.Bounds()
	maxDim := configs.MAX_IMAGE_DIMENSION
	if maxDim > 0 && (bounds.Dx() > maxDim || bounds.Dy() > maxDim) {
		if bounds.Dx() > bounds.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	if configs.ENABLE_IMAGE_PREPROCESSING {
		img = imaging.Grayscale(img)
		img = imaging.Sharpen(img, 2.0)
		img = imaging.AdjustContrast(img, 20)
	}

	if err := imaging.Save(img, dstPath); err != nil {
		return fmt.Errorf("failed to save prepared scan: %w", err)
	}
	return nil
}
