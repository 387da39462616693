// Package export renders tour geometry to files for debugging.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

var (
	colorBackdrop = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff}
	colorSafe     = color.RGBA{R: 0x45, G: 0x47, B: 0x5a, A: 0xff}
	colorTarget   = color.RGBA{R: 0xf9, G: 0xe2, B: 0xaf, A: 0xff}
	colorTooltip  = color.RGBA{R: 0x89, G: 0xb4, B: 0xfa, A: 0xff}
	colorArrow    = color.RGBA{R: 0xf3, G: 0x8b, B: 0xa8, A: 0xff}
	colorText     = color.RGBA{R: 0xcd, G: 0xd6, B: 0xf4, A: 0xff}
	colorSubtle   = color.RGBA{R: 0xa6, G: 0xad, B: 0xc8, A: 0xff}
)

// PlacementSVGOptions describes one placement diagram.
type PlacementSVGOptions struct {
	Path      string
	Viewport  tour.Size
	Target    tour.Rect
	Metrics   tour.Metrics
	Preferred tour.Side
	// CellWidth and CellHeight scale one unit to SVG pixels. Zero means 1,
	// which suits pixel metrics; terminal cells read well at 8x16.
	CellWidth  int
	CellHeight int
	Title      string
}

// SavePlacementSVG solves the placement and writes the diagram to opts.Path.
func SavePlacementSVG(opts PlacementSVGOptions) (tour.Placement, error) {
	file, err := os.Create(opts.Path)
	if err != nil {
		return tour.Placement{}, err
	}
	defer file.Close()

	p := RenderPlacementSVG(file, opts)
	return p, file.Close()
}

// RenderPlacementSVG draws the viewport, its visibility margin, the target,
// the solved tooltip and its arrow, and returns the placement it drew.
func RenderPlacementSVG(w io.Writer, opts PlacementSVGOptions) tour.Placement {
	sx, sy := opts.CellWidth, opts.CellHeight
	if sx <= 0 {
		sx = 1
	}
	if sy <= 0 {
		sy = 1
	}
	m := opts.Metrics
	p := tour.Solve(opts.Target, opts.Viewport, m, opts.Preferred)

	const header = 48
	width := max(opts.Viewport.Width*sx, 320)
	height := opts.Viewport.Height*sy + header

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	title := opts.Title
	if title == "" {
		title = "placement"
	}
	canvas.Text(12, 20, title, fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(12, 38, fmt.Sprintf("viewport %dx%d  preferred %s  chosen %s  arrow %d",
		opts.Viewport.Width, opts.Viewport.Height, orDefault(opts.Preferred), p.ArrowSide, p.ArrowOffset),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	canvas.Gtransform(fmt.Sprintf("translate(0,%d)", header))

	canvas.Rect(0, 0, opts.Viewport.Width*sx, opts.Viewport.Height*sy,
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorSubtle)))
	safe := tour.Rect{Width: opts.Viewport.Width, Height: opts.Viewport.Height}.Inset(m.Margin)
	if safe.Width > 0 && safe.Height > 0 {
		canvas.Rect(safe.Left*sx, safe.Top*sy, safe.Width*sx, safe.Height*sy,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1;stroke-dasharray:6,4", css(colorSafe)))
	}

	t := opts.Target
	canvas.Rect(t.Left*sx, t.Top*sy, max(t.Width*sx, 1), max(t.Height*sy, 1),
		fmt.Sprintf("fill:%s;fill-opacity:0.35;stroke:%s;stroke-width:2", css(colorTarget), css(colorTarget)))

	canvas.Roundrect(p.Left*sx, p.Top*sy, m.TooltipWidth*sx, m.TooltipHeight*sy, 6, 6,
		fmt.Sprintf("fill:%s;fill-opacity:0.25;stroke:%s;stroke-width:2", css(colorTooltip), css(colorTooltip)))

	xs, ys := arrowPolygon(p, m, sx, sy)
	canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s", css(colorArrow)))

	canvas.Gend()
	canvas.End()
	return p
}

// arrowPolygon returns a triangle on the tooltip edge facing the target.
func arrowPolygon(p tour.Placement, m tour.Metrics, sx, sy int) ([]int, []int) {
	a := max(m.ArrowSize, 1)
	left, top := p.Left*sx, p.Top*sy
	w, h := m.TooltipWidth*sx, m.TooltipHeight*sy
	switch p.ArrowSide {
	case tour.SideBottom: // tooltip below target, arrow on its top edge
		x := left + p.ArrowOffset*sx
		return []int{x, x + a*sx, x + 2*a*sx}, []int{top, top - a*sy, top}
	case tour.SideTop:
		x := left + p.ArrowOffset*sx
		return []int{x, x + a*sx, x + 2*a*sx}, []int{top + h, top + h + a*sy, top + h}
	case tour.SideRight:
		y := top + p.ArrowOffset*sy
		return []int{left, left - a*sx, left}, []int{y, y + a*sy, y + 2*a*sy}
	default:
		y := top + p.ArrowOffset*sy
		return []int{left + w, left + w + a*sx, left + w}, []int{y, y + a*sy, y + 2*a*sy}
	}
}

func orDefault(s tour.Side) tour.Side {
	if s == "" {
		return tour.SideBottom
	}
	return s
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
