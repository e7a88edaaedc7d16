// Package compositor turns a captured frame into the image handed to the
// display: a channel-order conversion in pass-through modes, or the frame
// resized into an overlay's screen rectangle.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/internal/overlay"
)

var (
	// ErrAssetMissing means the overlay image could not be loaded.
	ErrAssetMissing = errors.New("overlay asset missing")
	// ErrBadRectangle means the destination rectangle does not fit the
	// asset. It matches ErrAssetMissing under errors.Is.
	ErrBadRectangle = fmt.Errorf("%w: rectangle outside asset", ErrAssetMissing)
)

// Compositor is used from the playback goroutine only.
type Compositor struct {
	loader overlay.Loader
	logger *slog.Logger
	assets map[overlay.ID]*frame.Frame
}

// New returns a compositor reading overlay assets through loader.
func New(loader overlay.Loader, logger *slog.Logger) *Compositor {
	return &Compositor{
		loader: loader,
		logger: logger,
		assets: make(map[overlay.ID]*frame.Frame),
	}
}

// Compose renders f for mode. Plain and Upscaled yield an RGB frame of the
// input size; Overlay yields an RGBA frame of the asset's size.
func (c *Compositor) Compose(f *frame.Frame, mode Mode) (*frame.Frame, error) {
	if mode.Kind != Overlay {
		return frame.ConvertChannels(f, frame.RGB), nil
	}

	spec, ok := overlay.Get(mode.Overlay)
	if !ok {
		return nil, fmt.Errorf("%w: unknown overlay %q", ErrAssetMissing, mode.Overlay)
	}
	asset, err := c.asset(spec)
	if err != nil {
		return nil, err
	}
	if !spec.Rect.In(asset.Bounds()) || spec.Rect.Empty() {
		return nil, fmt.Errorf("%w: %s %v in %dx%d", ErrBadRectangle, spec.ID, spec.Rect, asset.Width, asset.Height)
	}

	screen, err := frame.Resize(frame.ConvertChannels(f, frame.RGB), spec.Rect.Dx(), spec.Rect.Dy(), frame.Bilinear)
	if err != nil {
		return nil, err
	}

	out := asset.Clone()
	blitColor(out, screen, spec.Rect.Min)
	return out, nil
}

// asset returns the RGBA overlay for spec. Successful loads are cached for
// the life of the compositor; failures are retried on the next call.
func (c *Compositor) asset(spec overlay.Spec) (*frame.Frame, error) {
	if a, ok := c.assets[spec.ID]; ok {
		return a, nil
	}

	img, err := c.loader.Load(spec.Asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetMissing, spec.Asset, err)
	}
	a := frame.AddAlpha(frame.FromImage(img))
	c.assets[spec.ID] = a
	c.logger.Debug("Overlay asset loaded", "overlay", spec.ID, "asset", spec.Asset, "size", fmt.Sprintf("%dx%d", a.Width, a.Height))
	return a, nil
}

// blitColor copies the RGB bytes of src into dst at origin, leaving dst's
// alpha alone. dst is RGBA, src is RGB.
func blitColor(dst, src *frame.Frame, origin image.Point) {
	for y := range src.Height {
		drow := dst.Row(origin.Y + y)[origin.X*4:]
		srow := src.Row(y)
		for x := range src.Width {
			copy(drow[x*4:x*4+3], srow[x*3:x*3+3])
		}
	}
}
