package overlay

import (
	"bytes"
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyBox is returned for boxes with no width or height.
	ErrEmptyBox = errors.New("bounding box is empty")
	// ErrSizeMismatch is returned when a source plane does not match its box.
	ErrSizeMismatch = errors.New("source size does not match bounding box")
	// ErrChannelMismatch is returned when source and destination channel counts differ.
	ErrChannelMismatch = errors.New("channel count mismatch")
	// ErrEmptyMat is returned when a Mat has no pixel data.
	ErrEmptyMat = errors.New("mat is empty")
	// ErrUnsupportedType is returned for Mats that are not 8-bit with 1, 3 or 4 channels.
	ErrUnsupportedType = errors.New("unsupported mat type")
)

// Plane is a packed, row-major view of 8-bit pixels.
// Planes created by PlaneFromMat share memory with the Mat.
type Plane struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height, channels int) Plane {
	return Plane{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// PlaneFromMat returns a view over the pixel data of m.
// Writes to the plane modify the Mat.
func PlaneFromMat(m *gocv.Mat) (Plane, error) {
	if m == nil || m.Empty() {
		return Plane{}, ErrEmptyMat
	}

	switch m.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return Plane{}, ErrUnsupportedType
	}

	pix, err := m.DataPtrUint8()
	if err != nil {
		return Plane{}, err
	}

	return Plane{
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: m.Channels(),
		Pix:      pix,
	}, nil
}

// At returns the channel values of pixel (x, y). The slice aliases the plane.
func (p Plane) At(x, y int) []uint8 {
	i := (y*p.Width + x) * p.Channels
	return p.Pix[i : i+p.Channels]
}

// InBounds reports whether (x, y) may be written.
// Row 0 and column 0 are excluded along with everything outside the plane.
func (p Plane) InBounds(x, y int) bool {
	return x > 0 && x < p.Width && y > 0 && y < p.Height
}

// sentinelKey converts c into the channel order of a BGR(A) plane.
func sentinelKey(c color.RGBA, channels int) []uint8 {
	bgra := []uint8{c.B, c.G, c.R, c.A}
	if channels == 1 {
		// Single-channel assets compare against the red component.
		return []uint8{c.R}
	}
	if channels > len(bgra) {
		channels = len(bgra)
	}
	return bgra[:channels]
}

// Blit copies src, which must already be sized to box, into dst using the
// role's offset. Pixels equal to sentinel are skipped and pixels that land
// outside dst are dropped. It returns the number of pixels written.
func Blit(dst, src Plane, box image.Rectangle, role Role, sentinel *color.RGBA) (int, error) {
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return 0, ErrEmptyBox
	}
	if src.Width != box.Dx() || src.Height != box.Dy() {
		return 0, ErrSizeMismatch
	}
	if src.Channels != dst.Channels {
		return 0, ErrChannelMismatch
	}

	var key []uint8
	if sentinel != nil {
		key = sentinelKey(*sentinel, src.Channels)
	}

	written := 0
	for py := 0; py < src.Height; py++ {
		for px := 0; px < src.Width; px++ {
			pixel := src.At(px, py)
			if key != nil && bytes.Equal(pixel, key) {
				continue
			}

			d := role.Destination(box, px, py)
			if !dst.InBounds(d.X, d.Y) {
				continue
			}

			copy(dst.At(d.X, d.Y), pixel)
			written++
		}
	}

	return written, nil
}
