// Package overlay holds the fixed table of console bezels and the
// destination rectangle each one reserves for the live picture.
package overlay

import (
	"image"
	"slices"
)

// ID names an overlay.
type ID string

// Known overlays.
const (
	Vita2000 ID = "vita2000"
	Vita1000 ID = "vita1000"
	PSP      ID = "psp"
)

// Spec is one catalog entry. Rect is in the asset's own pixel space with
// Min inclusive and Max exclusive.
type Spec struct {
	ID    ID
	Asset string
	Rect  image.Rectangle
}

// The rectangles were calibrated by hand against each asset.
var catalog = []Spec{
	{ID: Vita2000, Asset: "vita.png", Rect: image.Rect(221, 64, 858, 424)},
	{ID: Vita1000, Asset: "vita1.png", Rect: image.Rect(213, 53, 866, 426)},
	{ID: PSP, Asset: "psp.png", Rect: image.Rect(238, 68, 845, 414)},
}

// Get returns the spec for id.
func Get(id ID) (Spec, bool) {
	i := slices.IndexFunc(catalog, func(s Spec) bool { return s.ID == id })
	if i < 0 {
		return Spec{}, false
	}
	return catalog[i], true
}

// IDs lists overlay ids in catalog order.
func IDs() []ID {
	ids := make([]ID, len(catalog))
	for i, s := range catalog {
		ids[i] = s.ID
	}
	return ids
}
