package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// DefaultThickness is the outline width used in rectangle mode.
const DefaultThickness = 2

// Resize returns a copy of src scaled to exactly width x height using area
// interpolation. A request for src's own size returns a clone, so resizing
// a result again to the same size yields identical pixels.
// The caller is responsible for closing the returned Mat.
func Resize(src gocv.Mat, width, height int) (*gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyBox
	}
	if src.Empty() {
		return nil, ErrEmptyMat
	}

	if src.Cols() == width && src.Rows() == height {
		clone := src.Clone()
		return &clone, nil
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationArea)
	if dst.Empty() {
		dst.Close()
		return nil, ErrEmptyMat
	}

	return &dst, nil
}

// Overlay resizes asset to box and composites it onto frame.
// It returns the number of frame pixels written.
func Overlay(frame *gocv.Mat, asset *Asset, box image.Rectangle) (int, error) {
	if asset == nil {
		return 0, ErrEmptyMat
	}
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return 0, ErrEmptyBox
	}

	dst, err := PlaneFromMat(frame)
	if err != nil {
		return 0, err
	}

	resized, err := Resize(asset.Image, box.Dx(), box.Dy())
	if err != nil {
		return 0, err
	}
	defer resized.Close()

	src, err := PlaneFromMat(resized)
	if err != nil {
		return 0, err
	}

	return Blit(dst, src, box, asset.Role, asset.Sentinel)
}

// Rectangle outlines box on frame. The stroke is drawn into a view that
// excludes row 0 and column 0, so it obeys the same bounds as Overlay.
func Rectangle(frame *gocv.Mat, box image.Rectangle, c color.RGBA, thickness int) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyMat
	}
	if box.Empty() {
		return ErrEmptyBox
	}
	if thickness <= 0 {
		thickness = DefaultThickness
	}

	writable := image.Rect(1, 1, frame.Cols(), frame.Rows())
	if writable.Empty() {
		return nil
	}

	region := frame.Region(writable)
	defer region.Close()

	gocv.Rectangle(&region, box.Sub(writable.Min), c, thickness)
	return nil
}
