package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// NormalizeImage decodes imageBytes and draws it onto a white NRGBA canvas, so
// grayscale, paletted and transparent inputs all reach the tool as opaque RGB.
// EXIF orientation is applied so phone photos are upright.
func NormalizeImage(imageBytes []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(imageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("cannot identify image file: empty image")
	}
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0), nil
}

// SaveNormalized writes img to path; the format follows the extension.
func SaveNormalized(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}
