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
)

// ClutchPoint is one player on the clutch bubble chart.
type ClutchPoint struct {
	Name   string
	PPG    float64
	WinPct float64
	FGPct  float64
	Color  string
}

// BubblePoint is a ClutchPoint placed inside the plot area.
type BubblePoint struct {
	ClutchPoint
	Number int // 1-based label drawn inside the circle
	CX, CY float64
	R      float64
}

// LegendEntry is one row of a legend, in absolute chart coordinates.
type LegendEntry struct {
	X, Y  float64
	Label string
	Color string
}

// BubbleChart is the laid out clutch chart. Point and tick positions are
// relative to the plot area, which starts at (Margin.Left, Margin.Top).
type BubbleChart struct {
	Width, Height           float64
	Margin                  Margin
	InnerWidth, InnerHeight float64
	X, Y, Radius            Linear
	Points                  []BubblePoint
	XTicks, YTicks          []Tick
	Legend                  []LegendEntry
	XTitle, YTitle          string
}

var bubbleMargin = Margin{Top: 50, Right: 300, Bottom: 60, Left: 60}

const (
	bubbleWidth     = 1000
	bubbleHeight    = 500
	bubbleLegendGap = 34
)

// BubbleXMax is the upper bound of the PPG axis: 50, or the next multiple of
// 5 above the highest PPG when that exceeds 50.
func BubbleXMax(points []ClutchPoint) float64 {
	max := 0.0
	for _, p := range points {
		max = math.Max(max, p.PPG)
	}
	if max > 50 {
		return math.Ceil(max/5) * 5
	}
	return 50
}

// BubbleLayout places clutch points: x is points per game, y is win
// percentage and the radius grows with field goal percentage.
func BubbleLayout(points []ClutchPoint) BubbleChart {
	m := bubbleMargin
	c := BubbleChart{
		Width:       bubbleWidth,
		Height:      bubbleHeight,
		Margin:      m,
		InnerWidth:  bubbleWidth - m.Left - m.Right,
		InnerHeight: bubbleHeight - m.Top - m.Bottom,
		XTitle:      "PPG in clutch games",
		YTitle:      "Win% in clutch games",
	}
	xMax := BubbleXMax(points)
	c.X = Linear{D0: -5, D1: xMax, R0: 0, R1: c.InnerWidth}
	c.Y = Linear{D0: -18, D1: 100, R0: c.InnerHeight, R1: 0}
	c.Radius = Linear{D0: 0, D1: 100, R0: 15, R1: 45, Clamp: true}

	for i, p := range points {
		if p.Color == "" {
			p.Color = GenerateColor(i)
		}
		c.Points = append(c.Points, BubblePoint{
			ClutchPoint: p,
			Number:      i + 1,
			CX:          c.X.At(p.PPG),
			CY:          c.Y.At(p.WinPct),
			R:           c.Radius.At(p.FGPct),
		})
		c.Legend = append(c.Legend, LegendEntry{
			X:     c.Width - m.Right + 80,
			Y:     m.Top + float64(i)*bubbleLegendGap,
			Label: fmt.Sprintf("%d. %s", i+1, p.Name),
			Color: p.Color,
		})
	}
	for v := 0.0; v <= xMax; v += 5 {
		c.XTicks = append(c.XTicks, Tick{Pos: c.X.At(v), Label: num(v)})
	}
	for v := 0.0; v <= 100; v += 10 {
		c.YTicks = append(c.YTicks, Tick{Pos: c.Y.At(v), Label: num(v) + "%"})
	}
	return c
}

// Tooltip is the hover text of a bubble.
func (p BubblePoint) Tooltip() string {
	return fmt.Sprintf("%s\nPPG: %.1f\nWin%%: %.1f%%\nFG%%: %.1f%%", p.Name, p.PPG, p.WinPct, p.FGPct)
}
