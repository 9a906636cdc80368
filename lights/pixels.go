package lights

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/euclid/config"
	"github.com/robmorgan/euclid/event"
	"github.com/robmorgan/euclid/rhythm"
	"github.com/robmorgan/euclid/utils"
)

// Palette holds the pixel strip colours.
type Palette struct {
	Step colorful.Color
	Head colorful.Color
	Bar  colorful.Color
	Off  colorful.Color
}

// NewPalette parses the configured colours.
func NewPalette(c config.ColorConfig) Palette {
	return Palette{
		Step: utils.GetRGBFromString(c.Step),
		Head: utils.GetRGBFromString(c.Head),
		Bar:  utils.GetRGBFromString(c.Bar),
		Off:  utils.GetRGBFromString(c.Off),
	}
}

// Pixels is a 16 pixel strip, one pixel per step.
type Pixels struct {
	palette Palette
	pattern rhythm.Pattern
	step    int
}

// NewPixels creates a strip following the active pattern and play head on bus.
func NewPixels(bus *event.Bus, palette Palette) *Pixels {
	p := &Pixels{palette: palette, step: -1}
	bus.PatternChanged.Register(func(pattern uint16) {
		p.pattern = rhythm.Pattern(pattern)
	})
	bus.ActiveStep.Register(func(step int) {
		p.step = step
	})
	return p
}

// Render returns the colour of every pixel. The play head wins over a hit, and a hit wins over the
// downbeat marker on pixel 0.
func (p *Pixels) Render() []colorful.Color {
	out := make([]colorful.Color, rhythm.StepCount)
	for i := range out {
		switch {
		case i == p.step:
			out[i] = p.palette.Head
		case p.pattern.Hit(i):
			out[i] = p.palette.Step
		case i == 0:
			out[i] = p.palette.Bar
		default:
			out[i] = p.palette.Off
		}
	}
	return out
}

// Hex returns Render as hex strings.
func (p *Pixels) Hex() []string {
	colors := p.Render()
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.Hex()
	}
	return out
}
