// Package imgcodec decodes JPEG payloads and produces resized variants for
// the store's thumb and small resolutions.
package imgcodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Kernel selects the resampling algorithm used to produce a resized
// variant. Different target resolutions use different kernels: thumbnails
// favour nfnt/resize's cheap bilinear filter, while the small resolution
// uses golang.org/x/image/draw's sharper Catmull-Rom kernel.
type Kernel int

const (
	// KernelBilinear trades quality for speed; suited to small thumbnails
	// viewed at a glance.
	KernelBilinear Kernel = iota
	// KernelCatmullRom produces a sharper result at higher cost; suited to
	// the larger "small" resolution where quality is more visible.
	KernelCatmullRom
)

// Decode parses a JPEG payload into an image; see Dimensions for its size.
func Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}
	return img, nil
}

// Dimensions returns the width and height of a decoded image.
func Dimensions(img image.Image) (width, height uint32) {
	b := img.Bounds()
	return uint32(b.Dx()), uint32(b.Dy())
}

// Resize produces a JPEG-encoded copy of img scaled to fit within
// maxWidth x maxHeight, preserving aspect ratio, using the given kernel.
// A zero cap is not read as "unconstrained": it scales the image down to
// 1x1. store.Create rejects zero caps.
func Resize(img image.Image, maxWidth, maxHeight uint32, kernel Kernel) ([]byte, error) {
	scaled := scaleToFit(img, maxWidth, maxHeight, kernel)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpeg.DefaultQuality}); err != nil {
		return nil, fmt.Errorf("encoding resized jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func scaleToFit(img image.Image, maxWidth, maxHeight uint32, kernel Kernel) image.Image {
	b := img.Bounds()
	srcW, srcH := uint32(b.Dx()), uint32(b.Dy())

	w, h := fitDimensions(srcW, srcH, maxWidth, maxHeight)

	switch kernel {
	case KernelCatmullRom:
		dst := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		return dst
	default:
		return resize.Resize(w, h, img, resize.Bilinear)
	}
}

// fitDimensions scales (srcW, srcH) down to fit within (maxW, maxH) while
// preserving aspect ratio. It never scales up.
func fitDimensions(srcW, srcH, maxW, maxH uint32) (w, h uint32) {
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}

	wRatio := float64(maxW) / float64(srcW)
	hRatio := float64(maxH) / float64(srcH)
	ratio := wRatio
	if hRatio < wRatio {
		ratio = hRatio
	}

	w = uint32(float64(srcW) * ratio)
	h = uint32(float64(srcH) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
