package panel

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrBitmap = errors.New("panel: malformed bitmap")

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(
			nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			panic(err)
		}
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(
			nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
		)
		if err != nil {
			panic(err)
		}
		return dec
	},
}

// EncodeBitmap compresses the RGBA pixels of img.
func EncodeBitmap(img *image.RGBA) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(img.Pix, nil)
	zstdEncPool.Put(enc)
	return out
}

// DecodeBitmap restores a side×side image. A nil bitmap is the blank tile.
func DecodeBitmap(side int, data []byte) (*image.RGBA, error) {
	if data == nil {
		return BlankImage(side), nil
	}
	dec := zstdDecPool.Get().(*zstd.Decoder)
	pix, err := dec.DecodeAll(data, make([]byte, 0, side*side*4))
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBitmap, err)
	}
	if len(pix) != side*side*4 {
		return nil, fmt.Errorf("%w: %d bytes for side %d", ErrBitmap, len(pix), side)
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	copy(img.Pix, pix)
	return img, nil
}

// BlankImage is a tile bounded everywhere by formula.
func BlankImage(side int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(FormulaColor), image.Point{}, draw.Src)
	return img
}
