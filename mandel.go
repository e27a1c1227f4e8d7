package mandel

import (
	"image"
	"strconv"
)

// Coord is a panel index in panel space.
// Both components are canonical decimal integers so they stay exact at any depth.
type Coord struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func (c Coord) String() string {
	return c.X + ":" + c.Y
}

// IntCoord builds a Coord from native integers.
func IntCoord(x, y int) Coord {
	return Coord{X: strconv.Itoa(x), Y: strconv.Itoa(y)}
}

// Tile is a panel snapshot placed on the current view.
type Tile struct {
	Coord  Coord       `json:"coord"`
	Side   int         `json:"side"`
	Bitmap []byte      `json:"bitmap"`
	Pos    image.Point `json:"pos"` // top-left pixel relative to the view's top-left corner
}

// Frame is the result of a flush towards the renderer.
type Frame struct {
	Reference   int    `json:"reference"` // generation the tiles belong to
	Tiles       []Tile `json:"tiles"`
	Incremental bool   `json:"incremental"`
}

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// View returns the center and zoom showing r horizontally across width pixels.
func (r Region) View(width int) (centerRe, centerIm, zoom string) {
	cx := (r.Xmin + r.Xmax) / 2
	cy := (r.Ymin + r.Ymax) / 2
	z := float64(width) / (r.Xmax - r.Xmin)
	return ftoa(cx), ftoa(cy), ftoa(z)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Whole set
	Overview = Region{
		Xmin: -2.5,
		Xmax: 1,
		Ymin: -1.2,
		Ymax: 1.2,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: 0.25,
		Xmax: 0.35,
		Ymin: -0.05,
		Ymax: 0.05,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Regions maps landmark names to regions.
var Regions = map[string]Region{
	"overview":   Overview,
	"seahorse":   SeahorseValley,
	"elephant":   ElephantValley,
	"spiral":     SpiralMinibrot,
	"triple":     TripleSpiral,
	"dragon":     ValleyOfTheDragon,
	"minispiral": MinibrotInMiniSpiral,
}
