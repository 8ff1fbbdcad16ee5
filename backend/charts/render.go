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
	"html"
	"math"
	"strconv"
	"strings"
)

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

type svg struct {
	b strings.Builder
}

func (s *svg) line(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
	s.b.WriteByte('\n')
}

func (s *svg) open(class string, w, h float64) {
	s.line(`<svg xmlns="http://www.w3.org/2000/svg" class="chart %s" width="%s" height="%s" viewBox="0 0 %s %s" role="img">`,
		class, num(w), num(h), num(w), num(h))
}

func (s *svg) close() string {
	s.line(`</svg>`)
	return s.b.String()
}

func esc(v string) string {
	return html.EscapeString(v)
}

// RenderBubble renders a laid out clutch chart.
func RenderBubble(c BubbleChart) string {
	var s svg
	s.open("bubble-chart", c.Width, c.Height)
	s.line(`<g transform="translate(%s,%s)">`, num(c.Margin.Left), num(c.Margin.Top))

	for _, t := range c.XTicks {
		s.line(`<line class="grid" x1="%s" y1="0" x2="%s" y2="%s" stroke="#e5e7eb"/>`, num(t.Pos), num(t.Pos), num(c.InnerHeight))
		s.line(`<text class="tick" x="%s" y="%s" text-anchor="middle">%s</text>`, num(t.Pos), num(c.InnerHeight+18), esc(t.Label))
	}
	for _, t := range c.YTicks {
		s.line(`<line class="grid" x1="0" y1="%s" x2="%s" y2="%s" stroke="#e5e7eb"/>`, num(t.Pos), num(c.InnerWidth), num(t.Pos))
		s.line(`<text class="tick" x="-8" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`, num(t.Pos), esc(t.Label))
	}
	s.line(`<text class="axis-title" x="%s" y="%s" text-anchor="middle">%s</text>`, num(c.InnerWidth/2), num(c.InnerHeight+45), esc(c.XTitle))
	s.line(`<text class="axis-title" transform="rotate(-90)" x="%s" y="-42" text-anchor="middle">%s</text>`, num(-c.InnerHeight/2), esc(c.YTitle))

	for _, p := range c.Points {
		s.line(`<g class="bubble">`)
		s.line(`<circle cx="%s" cy="%s" r="%s" fill="%s" opacity="0.85"><title>%s</title></circle>`,
			num(p.CX), num(p.CY), num(p.R), esc(p.Color), esc(p.Tooltip()))
		s.line(`<text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" fill="#fff">%d</text>`, num(p.CX), num(p.CY), p.Number)
		s.line(`</g>`)
	}
	s.line(`</g>`)

	for _, l := range c.Legend {
		s.line(`<circle class="legend" cx="%s" cy="%s" r="11" fill="%s"/>`, num(l.X), num(l.Y), esc(l.Color))
		s.line(`<text class="legend" x="%s" y="%s" dominant-baseline="middle">%s</text>`, num(l.X+18), num(l.Y), esc(l.Label))
	}
	return s.close()
}

// RenderMirror renders a laid out player comparison.
func RenderMirror(c MirrorChart) string {
	var s svg
	s.open("mirror-chart", c.Width, c.Height)
	s.line(`<line class="axis" x1="%s" y1="0" x2="%s" y2="%s" stroke="#94a3b8"/>`, num(c.AxisX), num(c.AxisX), num(c.Height))
	for _, r := range c.Rows {
		s.line(`<g class="mirror-row" data-metric="%s">`, esc(r.Metric.Key))
		s.line(`<text class="metric-label" x="%s" y="%s" text-anchor="middle">%s</text>`, num(c.AxisX), num(r.Y-4), esc(r.Metric.Label))
		for _, b := range []MirrorBar{r.Left, r.Right} {
			if !b.NA {
				s.line(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"><title>%s</title></rect>`,
					num(b.X), num(r.Y), num(b.W), num(r.H), b.Color, esc(b.Tooltip))
			}
			s.line(`<text class="value" x="%s" y="%s" text-anchor="%s" dominant-baseline="middle">%s</text>`,
				num(b.TextX), num(r.Y+r.H/2), b.TextAnchor, esc(b.Text))
		}
		s.line(`</g>`)
	}
	return s.close()
}

// RenderTrend renders a laid out team comparison.
func RenderTrend(c TrendChart) string {
	var s svg
	s.open("trend-chart", c.Width, c.Height)
	s.line(`<g transform="translate(%s,%s)">`, num(c.Margin.Left), num(c.Margin.Top))
	s.line(`<line class="axis" x1="0" y1="%s" x2="%s" y2="%s" stroke="#94a3b8"/>`, num(c.InnerHeight), num(c.InnerWidth), num(c.InnerHeight))
	for _, t := range c.XTicks {
		s.line(`<text class="tick" x="%s" y="%s" text-anchor="middle">%s</text>`, num(t.Pos), num(c.InnerHeight+18), esc(t.Label))
	}
	for _, t := range c.YTicks {
		s.line(`<line class="grid" x1="0" y1="%s" x2="%s" y2="%s" stroke="#e5e7eb"/>`, num(t.Pos), num(c.InnerWidth), num(t.Pos))
		s.line(`<text class="tick" x="-8" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`, num(t.Pos), esc(t.Label))
	}
	if c.YLabel != "" {
		s.line(`<text class="axis-title" transform="rotate(-90)" x="%s" y="-38" text-anchor="middle">%s</text>`, num(-c.InnerHeight/2), esc(c.YLabel))
	}
	for _, l := range c.Lines {
		s.line(`<path class="trend-line" d="%s" fill="none" stroke="%s" stroke-width="2"/>`, l.Path, esc(l.Color))
		for _, m := range l.Markers {
			s.line(`<circle class="trend-point" cx="%s" cy="%s" r="4" fill="%s"><title>%s</title></circle>`, num(m.X), num(m.Y), esc(l.Color), esc(m.Tooltip))
		}
		if l.EndLabel.Label != "" {
			s.line(`<text class="end-label" x="%s" y="%s" dominant-baseline="middle" fill="%s">%s</text>`,
				num(l.EndLabel.X), num(l.EndLabel.Y), esc(l.Color), esc(l.EndLabel.Label))
		}
	}
	s.line(`</g>`)
	for _, l := range c.Legend {
		s.line(`<rect class="legend" x="%s" y="%s" width="12" height="12" fill="%s"/>`, num(l.X), num(l.Y-6), esc(l.Color))
		s.line(`<text class="legend" x="%s" y="%s" dominant-baseline="middle">%s</text>`, num(l.X+18), num(l.Y), esc(l.Label))
	}
	return s.close()
}
