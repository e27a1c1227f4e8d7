package main

import (
	"fmt"
	"image"
	"image/draw"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/panel"
)

// canvas composes the tiles of frames into one image of the view.
type canvas struct {
	img       *image.RGBA
	reference int
	tiles     map[mandel.Coord]struct{}
}

func newCanvas(w, h int) *canvas {
	return &canvas{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		tiles: make(map[mandel.Coord]struct{}),
	}
}

// apply draws f. A full frame or a new reference starts from a clear canvas.
func (c *canvas) apply(reference int, f mandel.Frame) error {
	if reference != c.reference || !f.Incremental {
		c.reference = reference
		draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
		clear(c.tiles)
	}

	for _, t := range f.Tiles {
		tileImg, err := panel.DecodeBitmap(t.Side, t.Bitmap)
		if err != nil {
			return fmt.Errorf("tile %s: %w", t.Coord, err)
		}
		draw.Draw(
			c.img,
			image.Rectangle{Min: t.Pos, Max: t.Pos.Add(image.Pt(t.Side, t.Side))}, // destination rectangle (view coords)
			tileImg,
			image.Point{},
			draw.Src,
		)
		c.tiles[t.Coord] = struct{}{}
	}
	return nil
}

func (c *canvas) len() int { return len(c.tiles) }
