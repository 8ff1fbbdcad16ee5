// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package charts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SeriesPoint is one game of a trend series.
type SeriesPoint struct {
	Date  string
	Value float64
}

// Series is one team's trend.
type Series struct {
	Name   string
	Color  string
	Points []SeriesPoint
}

// TrendInput is the data of the team comparison chart.
type TrendInput struct {
	Series []Series
	// Cumulative plots running sums instead of per-game values.
	Cumulative bool
	YLabel     string
}

// Point is a position inside the plot area.
type Point struct {
	X, Y float64
}

// TrendMarker is a hoverable game point.
type TrendMarker struct {
	Point
	Tooltip string
}

// TrendLine is a laid out series.
type TrendLine struct {
	Name     string
	Color    string
	Path     string
	Markers  []TrendMarker
	EndLabel LegendEntry // relative to the plot area
}

// TrendChart is the laid out comparison. Positions are relative to the plot
// area except Legend, which is absolute.
type TrendChart struct {
	Width, Height           float64
	Margin                  Margin
	InnerWidth, InnerHeight float64
	Lines                   []TrendLine
	XTicks, YTicks          []Tick
	Legend                  []LegendEntry
	YLabel                  string
}

var trendMargin = Margin{Top: 20, Right: 50, Bottom: 40, Left: 50}

const (
	trendWidth  = 700
	trendHeight = 350
)

// TrendLayout lays out per-game series on a shared game index axis. Series
// of different length share the longer index domain.
func TrendLayout(in TrendInput) TrendChart {
	m := trendMargin
	c := TrendChart{
		Width:       trendWidth,
		Height:      trendHeight,
		Margin:      m,
		InnerWidth:  trendWidth - m.Left - m.Right,
		InnerHeight: trendHeight - m.Top - m.Bottom,
		YLabel:      in.YLabel,
	}

	values := make([][]float64, len(in.Series))
	n, top := 0, 0.0
	for i, s := range in.Series {
		vs := make([]float64, len(s.Points))
		for j, p := range s.Points {
			vs[j] = p.Value
		}
		if in.Cumulative {
			vs = Cumulative(vs)
		}
		values[i] = vs
		n = max(n, len(vs))
		for _, v := range vs {
			top = math.Max(top, v)
		}
	}
	if n == 0 {
		return c
	}

	// The y domain ends at the largest value. Ticks stop at the last round
	// step below it.
	yMax := top
	if yMax <= 0 {
		yMax = 1
	}
	step := niceStep(yMax, 5)
	xMax := float64(n - 1)
	if xMax == 0 {
		xMax = 1
	}
	x := Linear{D0: 0, D1: xMax, R0: 0, R1: c.InnerWidth}
	y := Linear{D0: 0, D1: yMax, R0: c.InnerHeight, R1: 0}

	for i := 0; i < n; i++ {
		c.XTicks = append(c.XTicks, Tick{Pos: x.At(float64(i)), Label: strconv.Itoa(i + 1)})
	}
	for v := 0.0; v <= yMax*(1+1e-9); v += step {
		c.YTicks = append(c.YTicks, Tick{Pos: y.At(v), Label: num(v)})
	}

	for i, s := range in.Series {
		color := s.Color
		if color == "" {
			color = GenerateColor(i)
		}
		line := TrendLine{Name: s.Name, Color: color}
		pts := make([]Point, len(values[i]))
		for j, v := range values[i] {
			pts[j] = Point{X: x.At(float64(j)), Y: y.At(v)}
			line.Markers = append(line.Markers, TrendMarker{
				Point:   pts[j],
				Tooltip: fmt.Sprintf("%s: game %d\n%s\n%s", s.Name, j+1, s.Points[j].Date, num(math.Round(v*10)/10)),
			})
		}
		line.Path = MonotonePath(pts)
		if len(pts) > 0 {
			last := pts[len(pts)-1]
			line.EndLabel = LegendEntry{X: last.X + 6, Y: last.Y, Label: num(math.Round(values[i][len(pts)-1]*10) / 10), Color: color}
		}
		c.Lines = append(c.Lines, line)
		c.Legend = append(c.Legend, LegendEntry{
			X:     m.Left + 10,
			Y:     m.Top + 10 + float64(i)*20,
			Label: s.Name,
			Color: color,
		})
	}
	return c
}

// MonotonePath returns an SVG path through pts using monotone cubic
// interpolation along x, so the curve never overshoots between two points.
// pts must be sorted by X.
func MonotonePath(pts []Point) string {
	n := len(pts)
	if n == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%s", num(pts[0].X), num(pts[0].Y))
	if n == 1 {
		return b.String()
	}
	if n == 2 {
		fmt.Fprintf(&b, "L%s,%s", num(pts[1].X), num(pts[1].Y))
		return b.String()
	}

	t := make([]float64, n)
	for i := 1; i < n-1; i++ {
		t[i] = slope3(pts[i-1], pts[i], pts[i+1])
	}
	t[0] = slope2(pts[0], pts[1], t[1])
	t[n-1] = slope2(pts[n-2], pts[n-1], t[n-2])

	for i := 0; i < n-1; i++ {
		p0, p1 := pts[i], pts[i+1]
		dx := (p1.X - p0.X) / 3
		fmt.Fprintf(&b, "C%s,%s,%s,%s,%s,%s",
			num(p0.X+dx), num(p0.Y+dx*t[i]),
			num(p1.X-dx), num(p1.Y-dx*t[i+1]),
			num(p1.X), num(p1.Y))
	}
	return b.String()
}

func slope3(p0, p1, p2 Point) float64 {
	h0, h1 := p1.X-p0.X, p2.X-p1.X
	if h0 == 0 || h1 == 0 {
		return 0
	}
	s0 := (p1.Y - p0.Y) / h0
	s1 := (p2.Y - p1.Y) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	return (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
}

func slope2(p0, p1 Point, t float64) float64 {
	h := p1.X - p0.X
	if h == 0 {
		return t
	}
	return (3*(p1.Y-p0.Y)/h - t) / 2
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
