// Package charts renders the static PNG figures of the visualizer stage with gonum/plot.
//
// Every function takes already computed series and writes one file. Undefined values
// break a curve into separate segments rather than being drawn as zero.
package charts

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"keeling-pipeline/internal/models"
)

// Figure sizes
const (
	wideWidth    = 12 * vg.Inch
	wideHeight   = 6 * vg.Inch
	narrowWidth  = 8 * vg.Inch
	narrowHeight = 5 * vg.Inch
	panelHeight  = 3 * vg.Inch
)

var (
	blue   = color.RGBA{R: 0x21, G: 0x96, B: 0xF3, A: 0xff}
	red    = color.RGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xff}
	green  = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xff}
	orange = color.RGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xff}
	purple = color.RGBA{R: 0x9C, G: 0x27, B: 0xB0, A: 0xff}
	gray   = color.RGBA{R: 0x75, G: 0x75, B: 0x75, A: 0xff}
	black  = color.RGBA{A: 0xff}
)

// viridisAnchors are evenly spaced stops of the viridis colour map, lightest last
var viridisAnchors = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// ViridisReversed returns the colour of position i of n on the reversed viridis ramp,
// so later positions are darker.
func ViridisReversed(i, n int) color.RGBA {
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	return viridis(1 - t)
}

func viridis(t float64) color.RGBA {
	if t <= 0 {
		return viridisAnchors[0]
	}
	if t >= 1 {
		return viridisAnchors[len(viridisAnchors)-1]
	}
	pos := t * float64(len(viridisAnchors)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := viridisAnchors[i], viridisAnchors[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*frac + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

func fade(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// segments splits a series at undefined values into drawable runs
func segments(x []float64, y []models.NullFloat) []plotter.XYs {
	var out []plotter.XYs
	var current plotter.XYs
	for i := range x {
		if i >= len(y) || !y[i].Valid() {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: x[i], Y: y[i].Float64()})
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// addSeries draws every segment with the same style and registers one legend entry
func addSeries(p *plot.Plot, label string, x []float64, y []models.NullFloat, style draw.LineStyle) error {
	var first *plotter.Line
	for _, seg := range segments(x, y) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return fmt.Errorf("failed to build %q line: %w", label, err)
		}
		line.LineStyle = style
		p.Add(line)
		if first == nil {
			first = line
		}
	}
	if first != nil && label != "" {
		p.Legend.Add(label, first)
	}
	return nil
}

// addHLine draws a horizontal reference line across the plot
func addHLine(p *plot.Plot, label string, y float64, c color.Color, dashed bool) {
	fn := plotter.NewFunction(func(float64) float64 { return y })
	fn.Color = c
	fn.Width = vg.Points(1.5)
	if dashed {
		fn.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	}
	p.Add(fn)
	if label != "" {
		p.Legend.Add(label, fn)
	}
}

func lineStyle(c color.Color, width float64) draw.LineStyle {
	return draw.LineStyle{Color: c, Width: vg.Points(width)}
}

// savePanels stacks plots vertically with aligned axes and writes them as one PNG
func savePanels(path string, width vg.Length, plots ...*plot.Plot) (err error) {
	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(width, panelHeight*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Points(12),
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(12),
	}

	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func save(p *plot.Plot, path string, width, height vg.Length) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
