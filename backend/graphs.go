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

package backend

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/charts"
)

// rangeView is the date range form of a chart page.
type rangeView struct {
	Range    api.StatRange
	Min, Max string
}

func newRangeView(r api.StatRange) rangeView {
	return rangeView{Range: r, Min: api.MinDate.Format(api.DateLayout), Max: api.MaxDate.Format(api.DateLayout)}
}

// checkRange returns a message when r cannot be queried yet.
func checkRange(r api.StatRange) string {
	if !r.Complete() {
		return "Choose a start and an end date."
	}
	if err := r.Validate(); err != nil {
		return "Invalid date range: " + err.Error() + "."
	}
	return ""
}

func rangeFromForm(r *http.Request) api.StatRange {
	return api.StatRange{StartDate: r.PostFormValue("start_date"), EndDate: r.PostFormValue("end_date")}
}

type metricToggle struct {
	charts.Metric
	On bool
}

type playerStatsView struct {
	A, B    searchBoxView
	Range   rangeView
	Metrics []metricToggle
	Hint    string
	Chart   template.HTML
}

func summaryValues(s api.PlayerSummary) map[string]float64 {
	out := make(map[string]float64, len(charts.PlayerMetrics))
	for _, m := range charts.PlayerMetrics {
		out[m.Key] = s.Value(m.Key)
	}
	return out
}

func (a *app) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	d := b.Dashboard()
	v := playerStatsView{
		A:     playerBoxView(BoxPlayerA, "Player 1", d.PlayerA),
		B:     playerBoxView(BoxPlayerB, "Player 2", d.PlayerB),
		Range: newRangeView(d.PlayerRange),
	}
	for _, m := range charts.PlayerMetrics {
		v.Metrics = append(v.Metrics, metricToggle{Metric: m, On: d.Metrics == nil || slices.Contains(d.Metrics, m.Key)})
	}
	page := pageView{Title: "Player statistics", User: getUser(r), Active: "graphs", Search: true}

	switch {
	case d.PlayerA == nil || d.PlayerB == nil:
		v.Hint = "Choose two players to compare."
	case checkRange(d.PlayerRange) != "":
		v.Hint = checkRange(d.PlayerRange)
	default:
		c := a.api.WithTokens(b)
		var (
			wg             sync.WaitGroup
			left, right    api.PlayerSummary
			errL, errR     error
			statusL, statR int
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			var resp *api.Response
			if resp, left, errL = c.PlayerStats(r.Context(), d.PlayerA.PlayerID, d.PlayerRange); errL == nil {
				statusL = resp.Status
			}
		}()
		go func() {
			defer wg.Done()
			var resp *api.Response
			if resp, right, errR = c.PlayerStats(r.Context(), d.PlayerB.PlayerID, d.PlayerRange); errR == nil {
				statR = resp.Status
			}
		}()
		wg.Wait()
		if errL != nil || errR != nil || statusL != http.StatusOK || statR != http.StatusOK {
			log.Printf("[API] Player stats: %v %v (status %d, %d)", errL, errR, statusL, statR)
			page.Error = "Could not load the player statistics."
			break
		}
		chart := charts.MirrorLayout(charts.MirrorInput{
			LeftName:  d.PlayerA.Name,
			RightName: d.PlayerB.Name,
			Left:      summaryValues(left),
			Right:     summaryValues(right),
			Active:    d.Metrics,
		})
		v.Chart = template.HTML(charts.RenderMirror(chart))
	}
	page.Data = v
	a.render(w, http.StatusOK, "player_stats", page)
}

func (a *app) handlePlayerStatsForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderError(w, http.StatusBadRequest, "Invalid form.")
		return
	}
	rng := rangeFromForm(r)
	metrics := []string{}
	for _, m := range charts.PlayerMetrics {
		if slices.Contains(r.PostForm["metrics"], m.Key) {
			metrics = append(metrics, m.Key)
		}
	}
	err := browserFrom(r).UpdateDashboard(func(d *DashboardState) {
		d.PlayerRange = rng
		d.Metrics = metrics
	})
	if err != nil {
		log.Printf("[SESSION] Saving player stats form: %v", err)
		a.renderError(w, http.StatusInternalServerError, "Could not save your choices.")
		return
	}
	http.Redirect(w, r, "/graphs/player-stats", http.StatusSeeOther)
}

type teamStatsView struct {
	A, B     searchBoxView
	Games    []int
	NumGames int
	Parts    []GamePart
	GamePart string
	ShowSum  bool
	Hint     string
	Chart    template.HTML
}

func trendSeries(name, color string, pts []api.TrendPoint) charts.Series {
	s := charts.Series{Name: name, Color: color}
	for _, p := range pts {
		s.Points = append(s.Points, charts.SeriesPoint{Date: p.GameDate, Value: p.Value})
	}
	return s
}

func gamePartLabel(part string) string {
	for _, p := range GameParts {
		if p.Value == part {
			return p.Label
		}
	}
	return part
}

func (a *app) handleTeamStats(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	d := b.Dashboard()
	v := teamStatsView{
		A:        teamBoxView(BoxTeamA, "Team A", d.TeamA),
		B:        teamBoxView(BoxTeamB, "Team B", d.TeamB),
		Games:    GameCounts,
		NumGames: d.NumGames,
		Parts:    GameParts,
		GamePart: d.GamePart,
		ShowSum:  d.ShowSum,
	}
	if v.NumGames == 0 {
		v.NumGames = DefaultNumGames
	}
	if v.GamePart == "" {
		v.GamePart = DefaultGamePart
	}
	page := pageView{Title: "Team statistics", User: getUser(r), Active: "graphs", Search: true}

	if d.TeamA == nil || d.TeamB == nil {
		v.Hint = "Choose two teams to compare."
	} else {
		resp, cmp, err := a.api.WithTokens(b).CompareTeams(r.Context(), api.ComparisonRequest{
			TeamAID:  d.TeamA.ID,
			TeamBID:  d.TeamB.ID,
			NumGames: v.NumGames,
			GamePart: v.GamePart,
		})
		switch {
		case err != nil:
			log.Printf("[API] Team comparison: %v", err)
			page.Error = "Could not load the team comparison."
		case resp.Status != http.StatusOK:
			log.Printf("[API] Team comparison returned %d", resp.Status)
			page.Error = "Could not load the team comparison."
		default:
			label := "Points, " + gamePartLabel(v.GamePart)
			if v.ShowSum {
				label = "Total points, " + gamePartLabel(v.GamePart)
			}
			chart := charts.TrendLayout(charts.TrendInput{
				Series: []charts.Series{
					trendSeries(d.TeamA.FullName, charts.LeftColor, cmp.TeamA),
					trendSeries(d.TeamB.FullName, charts.RightColor, cmp.TeamB),
				},
				Cumulative: v.ShowSum,
				YLabel:     label,
			})
			v.Chart = template.HTML(charts.RenderTrend(chart))
		}
	}
	page.Data = v
	a.render(w, http.StatusOK, "team_stats", page)
}

func (a *app) handleTeamStatsForm(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PostFormValue("num_games"))
	if err != nil || !slices.Contains(GameCounts, n) {
		a.renderError(w, http.StatusBadRequest, "Invalid number of games.")
		return
	}
	part := r.PostFormValue("game_part")
	if !slices.ContainsFunc(GameParts, func(p GamePart) bool { return p.Value == part }) {
		a.renderError(w, http.StatusBadRequest, "Invalid game part.")
		return
	}
	showSum := r.PostFormValue("show_sum") != ""
	err = browserFrom(r).UpdateDashboard(func(d *DashboardState) {
		d.NumGames, d.GamePart, d.ShowSum = n, part, showSum
	})
	if err != nil {
		log.Printf("[SESSION] Saving team stats form: %v", err)
		a.renderError(w, http.StatusInternalServerError, "Could not save your choices.")
		return
	}
	http.Redirect(w, r, "/graphs/team-stats", http.StatusSeeOther)
}

type clutchPlayer struct {
	api.Player
	// Color is generated, never user input.
	Color template.CSS
}

type clutchView struct {
	Add     searchBoxView
	Players []clutchPlayer
	Full    bool
	Range   rangeView
	Hint    string
	Skipped []string
	Chart   template.HTML
}

// clutchPoints fetches the clutch summary of every player. Players whose
// request fails are skipped and their names returned.
func (a *app) clutchPoints(r *http.Request, c *api.Client, players []clutchPlayer, rng api.StatRange) ([]charts.ClutchPoint, []string) {
	type result struct {
		point charts.ClutchPoint
		ok    bool
	}
	results := make([]result, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, s, err := c.ClutchFactor(r.Context(), p.PlayerID, rng)
			if err != nil {
				log.Printf("[API] Clutch factor of %d: %v", p.PlayerID, err)
				return
			}
			if resp.Status != http.StatusOK {
				a.debugf("[API] Clutch factor of %d returned %d", p.PlayerID, resp.Status)
				return
			}
			results[i] = result{
				point: charts.ClutchPoint{Name: p.Name, PPG: s.AveragePoints, WinPct: s.WinPercentage, FGPct: s.FieldGoalPercentage, Color: string(p.Color)},
				ok:    true,
			}
		}()
	}
	wg.Wait()

	var points []charts.ClutchPoint
	var skipped []string
	for i, res := range results {
		if res.ok {
			points = append(points, res.point)
		} else {
			skipped = append(skipped, players[i].Name)
		}
	}
	return points, skipped
}

func (a *app) handleClutchFactor(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	d := b.Dashboard()
	v := clutchView{
		Add:   playerBoxView(BoxClutch, "Add player", nil),
		Full:  len(d.Clutch) >= MaxClutchPlayers,
		Range: newRangeView(d.ClutchRange),
	}
	for i, p := range d.Clutch {
		v.Players = append(v.Players, clutchPlayer{Player: p, Color: template.CSS(charts.GenerateColor(i))})
	}
	page := pageView{Title: "Clutch factor", User: getUser(r), Active: "graphs", Search: true}

	switch {
	case len(v.Players) == 0:
		v.Hint = "Add up to " + strconv.Itoa(MaxClutchPlayers) + " players."
	case checkRange(d.ClutchRange) != "":
		v.Hint = checkRange(d.ClutchRange)
	default:
		points, skipped := a.clutchPoints(r, a.api.WithTokens(b), v.Players, d.ClutchRange)
		v.Skipped = skipped
		v.Chart = template.HTML(charts.RenderBubble(charts.BubbleLayout(points)))
	}
	page.Data = v
	a.render(w, http.StatusOK, "clutch", page)
}

func (a *app) handleClutchFactorForm(w http.ResponseWriter, r *http.Request) {
	rng := rangeFromForm(r)
	if err := browserFrom(r).UpdateDashboard(func(d *DashboardState) { d.ClutchRange = rng }); err != nil {
		log.Printf("[SESSION] Saving clutch range: %v", err)
		a.renderError(w, http.StatusInternalServerError, "Could not save your choices.")
		return
	}
	http.Redirect(w, r, "/graphs/clutch-factor", http.StatusSeeOther)
}

func (a *app) handleClutchRemove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PostFormValue("player_id"))
	if err != nil {
		a.renderError(w, http.StatusBadRequest, fmt.Sprintf("Invalid player id %q.", r.PostFormValue("player_id")))
		return
	}
	err = browserFrom(r).UpdateDashboard(func(d *DashboardState) {
		d.Clutch = slices.DeleteFunc(d.Clutch, func(p api.Player) bool { return p.PlayerID == id })
	})
	if err != nil {
		log.Printf("[SESSION] Removing clutch player: %v", err)
		a.renderError(w, http.StatusInternalServerError, "Could not save your choices.")
		return
	}
	http.Redirect(w, r, "/graphs/clutch-factor", http.StatusSeeOther)
}
