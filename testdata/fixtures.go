// Package testdata builds synthetic frames and overlay images for tests.
package testdata

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Common fixture colours.
var (
	Black = color.RGBA{A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
)

// SolidFrame returns a BGR frame filled with c.
// The caller is responsible for closing the returned Mat.
func SolidFrame(width, height int, c color.RGBA) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0))
	return mat
}

// SetPixel writes c at (x, y) of a BGR Mat.
func SetPixel(m *gocv.Mat, x, y int, c color.RGBA) {
	m.SetUCharAt(y, x*3, c.B)
	m.SetUCharAt(y, x*3+1, c.G)
	m.SetUCharAt(y, x*3+2, c.R)
}

// Pixel reads (x, y) of a BGR Mat.
func Pixel(m gocv.Mat, x, y int) color.RGBA {
	v := m.GetVecbAt(y, x)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 255}
}

// FramedAsset returns a width x height image whose outer border of the given
// thickness is bg and whose interior is fg.
func FramedAsset(width, height, border int, fg, bg color.RGBA) gocv.Mat {
	mat := SolidFrame(width, height, bg)
	for y := border; y < height-border; y++ {
		for x := border; x < width-border; x++ {
			SetPixel(&mat, x, y, fg)
		}
	}
	return mat
}

// Diff returns the number of pixels that differ between two frames of equal size.
func Diff(a, b gocv.Mat) int {
	n := 0
	for y := 0; y < a.Rows(); y++ {
		for x := 0; x < a.Cols(); x++ {
			if Pixel(a, x, y) != Pixel(b, x, y) {
				n++
			}
		}
	}
	return n
}

// WriteImage encodes m into dir/name and returns the full path.
func WriteImage(dir, name string, m gocv.Mat) (string, error) {
	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, m); !ok {
		return "", fmt.Errorf("write image %s", path)
	}
	return path, nil
}
