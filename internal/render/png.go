package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"agristat/internal/models"
)

// ErrEmptyChart is returned for specs with nothing to draw
var ErrEmptyChart = errors.New("chart has no data")

// Layout of the drawn chart, in pixels
const (
	paddingTop   = 40
	paddingSide  = 16
	axisRoom     = 64
	minLabelPart = 0.1 // segments below this share of the scale are not labelled
)

// segment is one colored piece of a drawn bar
type segment struct {
	label string
	value float64
	color drawing.Color
}

type bar struct {
	name     string
	segments []segment
}

func (b bar) total() float64 {
	sum := 0.0
	for _, s := range b.segments {
		sum += s.value
	}
	return sum
}

// PNG draws spec as a bar image of the given size on an absolute value
// scale. Stacked specs get one bar per category; grouped specs get one
// bar per category and series, side by side.
func PNG(w io.Writer, spec *models.ChartSpec, width, height int) error {
	if spec == nil || spec.Empty {
		return ErrEmptyChart
	}

	colors := make([]drawing.Color, len(spec.Series))
	for j, s := range spec.Series {
		colors[j] = parseHexColor(s.Color, chart.GetDefaultColor(j))
	}

	bars := layoutBars(spec, colors)
	scale := 0.0
	for _, b := range bars {
		scale = math.Max(scale, b.total())
	}
	if scale <= 0 {
		return ErrEmptyChart
	}

	// Fit every bar on the canvas, leaving room for the value axis
	slot := max((width-2*paddingSide-axisRoom)/len(bars), 3)
	barWidth := max(slot*3/5, 2)

	stacked := make([]chart.StackedBar, 0, len(bars))
	for _, b := range bars {
		stacked = append(stacked, toStackedBar(b, scale, barWidth, spec.BarMode != models.ModeGroup))
	}

	sbc := chart.StackedBarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		BarSpacing: max(slot-barWidth, 1),
		Background: chart.Style{Padding: chart.Box{Top: paddingTop, Left: paddingSide, Right: paddingSide, Bottom: paddingSide}},
		YAxis:      chart.Hidden(),
		Bars:       stacked,
		Elements:   []chart.Renderable{valueAxis(scale)},
	}
	if err := sbc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", spec.Title, err)
	}
	return nil
}

// layoutBars turns the spec into drawable bars, dropping missing and
// non-positive values
func layoutBars(spec *models.ChartSpec, colors []drawing.Color) []bar {
	bars := make([]bar, 0, len(spec.Categories))
	for i, category := range spec.Categories {
		if spec.BarMode == models.ModeGroup {
			mid := len(spec.Series) / 2
			for j, s := range spec.Series {
				b := bar{}
				if j == mid {
					b.name = category
				}
				if v, ok := valueAt(s, i); ok {
					b.segments = append(b.segments, segment{label: s.Name, value: v, color: colors[j]})
				}
				bars = append(bars, b)
			}
			continue
		}

		b := bar{name: category}
		for j, s := range spec.Series {
			if v, ok := valueAt(s, i); ok {
				b.segments = append(b.segments, segment{label: s.Name, value: v, color: colors[j]})
			}
		}
		bars = append(bars, b)
	}
	return bars
}

func valueAt(s models.Series, i int) (float64, bool) {
	if i >= len(s.Values) {
		return 0, false
	}
	v := s.Values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// toStackedBar pads b with a transparent top piece up to scale.
// go-chart draws every stacked bar at full height, so the padding is
// what keeps bar heights proportional to their totals.
func toStackedBar(b bar, scale float64, width int, labelled bool) chart.StackedBar {
	sb := chart.StackedBar{Name: b.name, Width: width}
	if pad := scale - b.total(); pad > 0 {
		sb.Values = append(sb.Values, chart.Value{
			Value: pad,
			Style: chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		})
	}
	// Pieces are drawn top down; the first series sits on the axis
	for k := len(b.segments) - 1; k >= 0; k-- {
		s := b.segments[k]
		v := chart.Value{
			Value: s.value,
			Style: chart.Style{FillColor: s.color, StrokeColor: s.color, StrokeWidth: 1},
		}
		if labelled && s.value/scale >= minLabelPart {
			v.Label = s.label
		}
		sb.Values = append(sb.Values, v)
	}
	return sb
}

// valueAxis draws ticks from zero to scale on the right of the bars
func valueAxis(scale float64) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		style := chart.Style{
			StrokeColor: chart.DefaultAxisColor,
			StrokeWidth: chart.DefaultAxisLineWidth,
			FontColor:   chart.DefaultAxisColor,
			FontSize:    chart.DefaultAxisFontSize,
		}.InheritFrom(defaults)

		style.GetStrokeOptions().WriteToRenderer(r)
		r.MoveTo(box.Right, box.Top)
		r.LineTo(box.Right, box.Bottom)
		r.Stroke()

		step, decimals := tickStep(scale)
		for k := 0; float64(k)*step <= scale*(1+1e-9); k++ {
			t := float64(k) * step
			ty := box.Bottom - int(t/scale*float64(box.Height()))

			style.GetStrokeOptions().WriteToRenderer(r)
			r.MoveTo(box.Right, ty)
			r.LineTo(box.Right+chart.DefaultHorizontalTickWidth, ty)
			r.Stroke()

			label := strconv.FormatFloat(t, 'f', decimals, 64)
			tb := chart.Draw.MeasureText(r, label, style)
			chart.Draw.Text(r, label, box.Right+chart.DefaultYAxisMargin, ty+tb.Height()/2, style)
		}
	}
}

// tickStep picks a 1, 2 or 5 times power-of-ten step giving about five
// ticks up to scale, and the decimals needed to print it
func tickStep(scale float64) (float64, int) {
	raw := scale / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	var step float64
	switch f := raw / mag; {
	case f <= 1:
		step = mag
	case f <= 2:
		step = 2 * mag
	case f <= 5:
		step = 5 * mag
	default:
		step = 10 * mag
	}
	return step, max(0, -int(math.Floor(math.Log10(step))))
}

// parseHexColor reads "#rrggbb", returning fallback for anything else
func parseHexColor(s string, fallback drawing.Color) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return fallback
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return drawing.Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}
}
