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
	"slices"
	"strings"
)

// Metric is a player statistic that can be shown on the mirror chart.
type Metric struct {
	Key   string
	Label string
}

// GamesPlayed always gets a bar, even at zero.
const GamesPlayed = "games_played"

// PlayerMetrics lists the mirror chart rows in display order.
var PlayerMetrics = []Metric{
	{GamesPlayed, "Games played"},
	{"average_points", "Points"},
	{"average_rebounds", "Rebounds"},
	{"average_assists", "Assists"},
	{"field_goal_percentage", "FG%"},
	{"three_point_percentage", "3P%"},
	{"free_throw_percentage", "FT%"},
}

const (
	LeftColor  = "#2755A8"
	RightColor = "#facc15"

	mirrorWidth     = 700
	mirrorRowHeight = 75
	mirrorAxisX     = 350
	mirrorReach     = 270
	mirrorPadding   = 0.6
)

// MirrorInput is the data for a head-to-head comparison.
type MirrorInput struct {
	LeftName, RightName string
	Left, Right         map[string]float64
	// Active holds the metric keys to show. Nil shows every metric.
	Active []string
}

// MirrorBar is one half of a row.
type MirrorBar struct {
	Value float64
	X, W  float64
	NA    bool
	Text  string
	TextX float64
	// TextAnchor is the SVG text-anchor of the value label.
	TextAnchor string
	Color      string
	Tooltip    string
}

// MirrorRow is one metric.
type MirrorRow struct {
	Metric      Metric
	Y, H        float64
	Left, Right MirrorBar
}

// MirrorChart is the laid out comparison.
type MirrorChart struct {
	Width, Height       float64
	AxisX               float64
	LeftName, RightName string
	Rows                []MirrorRow
}

// MirrorLayout places two players' metrics back to back around a centre
// axis. Each metric is scaled by its own maximum across both players.
func MirrorLayout(in MirrorInput) MirrorChart {
	var metrics []Metric
	for _, m := range PlayerMetrics {
		if in.Active == nil || slices.Contains(in.Active, m.Key) {
			metrics = append(metrics, m)
		}
	}
	height := float64(mirrorRowHeight * len(metrics))
	c := MirrorChart{
		Width:     mirrorWidth,
		Height:    height,
		AxisX:     mirrorAxisX,
		LeftName:  in.LeftName,
		RightName: in.RightName,
	}
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = m.Key
	}
	band := Band{Keys: keys, R0: 20, R1: height - 20, Padding: mirrorPadding}

	for _, m := range metrics {
		lv, rv := in.Left[m.Key], in.Right[m.Key]
		max := math.Max(lv, rv)
		if max <= 0 {
			max = 1
		}
		left := Linear{D0: 0, D1: max, R0: mirrorAxisX, R1: mirrorAxisX - mirrorReach}
		right := Linear{D0: 0, D1: max, R0: mirrorAxisX, R1: mirrorAxisX + mirrorReach}

		row := MirrorRow{Metric: m, Y: band.At(m.Key), H: band.Bandwidth()}
		row.Left = mirrorBar(m, in.LeftName, lv, LeftColor)
		row.Right = mirrorBar(m, in.RightName, rv, RightColor)
		if !row.Left.NA {
			x := left.At(lv)
			row.Left.X, row.Left.W = x, mirrorAxisX-x
			row.Left.TextX, row.Left.TextAnchor = x-6, "end"
		} else {
			row.Left.TextX, row.Left.TextAnchor = mirrorAxisX-6, "end"
		}
		if !row.Right.NA {
			x := right.At(rv)
			row.Right.X, row.Right.W = mirrorAxisX, x-mirrorAxisX
			row.Right.TextX, row.Right.TextAnchor = x+6, "start"
		} else {
			row.Right.TextX, row.Right.TextAnchor = mirrorAxisX+6, "start"
		}
		c.Rows = append(c.Rows, row)
	}
	return c
}

func mirrorBar(m Metric, who string, v float64, color string) MirrorBar {
	b := MirrorBar{Value: v, Color: color}
	if v <= 0 && m.Key != GamesPlayed {
		b.NA = true
		b.Text = "N/A"
	} else {
		b.Text = FormatMetric(m.Key, v)
	}
	b.Tooltip = fmt.Sprintf("%s %s: %s", who, m.Label, b.Text)
	return b
}

// FormatMetric formats a player metric for display.
func FormatMetric(key string, v float64) string {
	switch {
	case key == GamesPlayed:
		return fmt.Sprintf("%.0f", v)
	case strings.HasSuffix(key, "_percentage"):
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%.1f", v)
}
