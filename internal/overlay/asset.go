package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"
)

// White is the background colour of the stock overlay images.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Asset is an overlay image with its transparency colour and placement role.
// It is immutable after construction and safe to share between frames.
type Asset struct {
	Image    gocv.Mat
	Sentinel *color.RGBA
	Role     Role
}

// NewAsset wraps img and takes ownership of it. Assets with RoleAbove are
// flipped vertically so that row 0 sits on the box's top edge.
func NewAsset(img gocv.Mat, role Role, sentinel *color.RGBA) *Asset {
	if role == RoleAbove && !img.Empty() {
		flipped := gocv.NewMat()
		gocv.Flip(img, &flipped, 0)
		img.Close()
		img = flipped
	}

	return &Asset{
		Image:    img,
		Sentinel: sentinel,
		Role:     role,
	}
}

// LoadAsset reads a colour image from path.
func LoadAsset(path string, role Role, sentinel *color.RGBA) (*Asset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("asset %s: %w", path, err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("asset %s: %w", path, ErrEmptyMat)
	}

	return NewAsset(img, role, sentinel), nil
}

// Size returns the asset's width and height.
func (a *Asset) Size() image.Point {
	return image.Pt(a.Image.Cols(), a.Image.Rows())
}

// Close releases the image.
func (a *Asset) Close() error {
	return a.Image.Close()
}
