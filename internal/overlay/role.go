// Package overlay composites overlay assets and detection boxes onto video frames.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnknownRole is returned when a placement role name is not recognized.
var ErrUnknownRole = errors.New("unknown placement role")

// Role controls where a resized asset is drawn relative to its detection box.
type Role int

const (
	// RoleCentered draws the asset directly over the box.
	RoleCentered Role = iota
	// RoleAbove anchors the asset on the box's top edge and grows upward.
	// Assets with this role are flipped vertically once when loaded.
	RoleAbove
	// RoleLowerHalf starts the asset at the box's vertical midpoint so it
	// covers the lower half of the box and extends below it.
	RoleLowerHalf
)

// String returns the configuration name of the role.
func (r Role) String() string {
	switch r {
	case RoleCentered:
		return "centered"
	case RoleAbove:
		return "above"
	case RoleLowerHalf:
		return "lower-half"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole converts a configuration name into a Role.
// An empty name selects RoleCentered.
func ParseRole(name string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "centered", "center":
		return RoleCentered, nil
	case "above":
		return RoleAbove, nil
	case "lower-half", "lower_half":
		return RoleLowerHalf, nil
	default:
		return RoleCentered, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
}

// Destination maps pixel (px, py) of an asset resized to box onto frame
// coordinates. The result may lie outside the frame.
func (r Role) Destination(box image.Rectangle, px, py int) image.Point {
	x := box.Min.X + px
	switch r {
	case RoleAbove:
		return image.Pt(x, box.Min.Y-py)
	case RoleLowerHalf:
		return image.Pt(x, box.Min.Y+box.Dy()/2+py)
	default:
		return image.Pt(x, box.Min.Y+py)
	}
}
