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

// Package charts lays out the dashboard charts and renders them as SVG.
//
// Layout functions are pure: they turn data into positioned shapes and never
// fetch anything. The Render functions only turn those shapes into markup.
package charts

import (
	"fmt"
	"math"
)

// Margin is the space around a chart's plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Linear maps a continuous domain onto a continuous range.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
	Clamp  bool
}

// At maps v.
func (s Linear) At(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	t := (v - s.D0) / (s.D1 - s.D0)
	if s.Clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return s.R0 + t*(s.R1-s.R0)
}

// Band splits a range into evenly spaced bands, one per key. Padding is used
// for both the inner and the outer padding and bands are centred.
type Band struct {
	Keys    []string
	R0, R1  float64
	Padding float64
}

func (s Band) step() (start, step float64) {
	n := float64(len(s.Keys))
	step = (s.R1 - s.R0) / math.Max(1, n-s.Padding+2*s.Padding)
	start = s.R0 + (s.R1-s.R0-step*(n-s.Padding))*0.5
	return start, step
}

// At returns the start of the band for key, or NaN for an unknown key.
func (s Band) At(key string) float64 {
	start, step := s.step()
	for i, k := range s.Keys {
		if k == key {
			return start + step*float64(i)
		}
	}
	return math.NaN()
}

// Bandwidth is the height of one band.
func (s Band) Bandwidth() float64 {
	_, step := s.step()
	return step * (1 - s.Padding)
}

// Tick is an axis tick at Pos with a label.
type Tick struct {
	Pos   float64
	Label string
}

// niceStep returns a round tick step for spanning max with about count ticks.
func niceStep(max float64, count int) float64 {
	if max <= 0 || count <= 0 {
		return 1
	}
	raw := max / float64(count)
	step := math.Pow(10, math.Floor(math.Log10(raw)))
	switch err := raw / step; {
	case err >= 7.07:
		step *= 10
	case err >= 3.16:
		step *= 5
	case err >= 1.41:
		step *= 2
	}
	return step
}

// GenerateColor returns a distinct colour for the i-th series using the
// golden angle.
func GenerateColor(i int) string {
	hue := math.Mod(float64(i)*137.508, 360)
	return fmt.Sprintf("hsl(%s, 70%%, 55%%)", num(hue))
}

// Cumulative returns the running sum of values.
func Cumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}
