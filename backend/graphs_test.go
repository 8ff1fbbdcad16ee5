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
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/statsapitest"
)

var season2021 = api.StatRange{StartDate: "2021-10-19", EndDate: "2022-04-10"}

func TestPlayerStatsPage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	t.Run("NeedsPlayers", func(t *testing.T) {
		doc := document(t, env.get(t, "/graphs/player-stats"))
		if got := doc.Find("#chart-hint").Text(); got != "Choose two players to compare." {
			t.Errorf("hint = %q", got)
		}
		if doc.Find("#chart").Length() != 0 {
			t.Error("No chart expected")
		}
		if n := doc.Find(`input[name="metrics"][checked]`).Length(); n != 7 {
			t.Errorf("All metrics should start checked, got %d", n)
		}
	})

	env.setDashboard(t, func(d *DashboardState) {
		d.PlayerA = &api.Player{PlayerID: statsapitest.Curry, Name: "Stephen Curry"}
		d.PlayerB = &api.Player{PlayerID: statsapitest.Durant, Name: "Kevin Durant"}
	})

	t.Run("NeedsRange", func(t *testing.T) {
		doc := document(t, env.get(t, "/graphs/player-stats"))
		if got := doc.Find("#chart-hint").Text(); got != "Choose a start and an end date." {
			t.Errorf("hint = %q", got)
		}
		if n := env.fake.Calls("/player_stats"); n != 0 {
			t.Errorf("No stats call expected, got %d", n)
		}
	})

	t.Run("InvalidRange", func(t *testing.T) {
		resp := env.post(t, "/graphs/player-stats", url.Values{"start_date": {"2022-05-01"}, "end_date": {"2022-01-01"}, "metrics": {"average_points"}})
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("Expected 303, got %d", resp.StatusCode)
		}
		doc := document(t, env.get(t, "/graphs/player-stats"))
		if got := doc.Find("#chart-hint").Text(); !strings.HasPrefix(got, "Invalid date range") {
			t.Errorf("hint = %q", got)
		}
	})

	t.Run("Chart", func(t *testing.T) {
		env.fake.SetPlayerStats(statsapitest.Curry, api.PlayerSummary{GamesPlayed: 64, AveragePoints: 25.5})
		env.post(t, "/graphs/player-stats", url.Values{
			"start_date": {season2021.StartDate},
			"end_date":   {season2021.EndDate},
			"metrics":    {"average_points", "average_assists", "bogus"},
		})
		d := env.record(t).Dashboard
		if !slices.Equal(d.Metrics, []string{"average_points", "average_assists"}) {
			t.Errorf("metrics = %v", d.Metrics)
		}
		if d.PlayerRange != season2021 {
			t.Errorf("range = %+v", d.PlayerRange)
		}

		doc := document(t, env.get(t, "/graphs/player-stats"))
		if doc.Find("#chart svg").Length() != 1 {
			t.Fatal("Expected a chart")
		}
		if n := env.fake.Calls("/player_stats"); n != 2 {
			t.Errorf("Expected 2 stats calls, got %d", n)
		}
		if !strings.Contains(doc.Find("#chart").Text(), "Stephen Curry") {
			t.Error("Chart should name the players")
		}
		if n := doc.Find(`input[name="metrics"][checked]`).Length(); n != 2 {
			t.Errorf("Expected 2 checked metrics, got %d", n)
		}
	})

	t.Run("NoMetrics", func(t *testing.T) {
		env.post(t, "/graphs/player-stats", url.Values{"start_date": {season2021.StartDate}, "end_date": {season2021.EndDate}})
		d := env.record(t).Dashboard
		if d.Metrics == nil || len(d.Metrics) != 0 {
			t.Errorf("Expected an empty, non-nil selection, got %#v", d.Metrics)
		}
		doc := document(t, env.get(t, "/graphs/player-stats"))
		if n := doc.Find(`input[name="metrics"][checked]`).Length(); n != 0 {
			t.Errorf("Expected no checked metrics, got %d", n)
		}
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		env.fake.Fail("/player_stats", http.StatusInternalServerError)
		defer env.fake.Fail("/player_stats", 0)
		doc := document(t, env.get(t, "/graphs/player-stats"))
		if got := doc.Find("#page-error").Text(); got != "Could not load the player statistics." {
			t.Errorf("error = %q", got)
		}
		if doc.Find("#chart").Length() != 0 {
			t.Error("No chart expected")
		}
	})
}

func TestTeamStatsPage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	doc := document(t, env.get(t, "/graphs/team-stats"))
	if got := doc.Find("#chart-hint").Text(); got != "Choose two teams to compare." {
		t.Errorf("hint = %q", got)
	}
	if v, _ := doc.Find(`select[name="num_games"] option[selected]`).Attr("value"); v != strconv.Itoa(DefaultNumGames) {
		t.Errorf("default games = %q", v)
	}

	for _, form := range []url.Values{
		{"num_games": {"7"}, "game_part": {"game"}},
		{"num_games": {"abc"}, "game_part": {"game"}},
		{"num_games": {"10"}, "game_part": {"overtime"}},
	} {
		if resp := env.post(t, "/graphs/team-stats", form); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", form, resp.StatusCode)
		}
	}

	env.setDashboard(t, func(d *DashboardState) {
		d.TeamA = &api.Team{ID: statsapitest.Heat, FullName: "Miami Heat"}
		d.TeamB = &api.Team{ID: statsapitest.Bucks, FullName: "Milwaukee Bucks"}
	})
	resp := env.post(t, "/graphs/team-stats", url.Values{"num_games": {"5"}, "game_part": {"4th"}, "show_sum": {"1"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", resp.StatusCode)
	}
	d := env.record(t).Dashboard
	if d.NumGames != 5 || d.GamePart != "4th" || !d.ShowSum {
		t.Errorf("Unexpected state %+v", d)
	}

	doc = document(t, env.get(t, "/graphs/team-stats"))
	if doc.Find("#chart svg").Length() != 1 {
		t.Fatal("Expected a chart")
	}
	if !strings.Contains(doc.Find("#chart").Text(), "Total points, 4th quarter") {
		t.Error("Expected the running total label")
	}
	if v, _ := doc.Find(`select[name="game_part"] option[selected]`).Attr("value"); v != "4th" {
		t.Errorf("selected part = %q", v)
	}
	if doc.Find(`input[name="show_sum"][checked]`).Length() != 1 {
		t.Error("show_sum should be checked")
	}
}

func TestClutchFactorPage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	doc := document(t, env.get(t, "/graphs/clutch-factor"))
	if got := doc.Find("#chart-hint").Text(); !strings.HasPrefix(got, "Add up to") {
		t.Errorf("hint = %q", got)
	}

	env.setDashboard(t, func(d *DashboardState) {
		d.Clutch = []api.Player{
			{PlayerID: statsapitest.Butler, Name: "Jimmy Butler"},
			{PlayerID: statsapitest.Doncic, Name: "Luka Doncic"},
			{PlayerID: 42, Name: "Nobody"},
		}
	})
	env.post(t, "/graphs/clutch-factor", url.Values{"start_date": {season2021.StartDate}, "end_date": {season2021.EndDate}})

	doc = document(t, env.get(t, "/graphs/clutch-factor"))
	if doc.Find("#chart svg").Length() != 1 {
		t.Fatal("Expected a chart")
	}
	if n := doc.Find("#clutch-players li").Length(); n != 3 {
		t.Errorf("Expected 3 players listed, got %d", n)
	}
	if got := doc.Find("#clutch-skipped").Text(); !strings.Contains(got, "Nobody") {
		t.Errorf("skipped = %q", got)
	}
	if style, _ := doc.Find("#clutch-players li").First().Attr("style"); !strings.Contains(style, "hsl(") {
		t.Errorf("chip style = %q", style)
	}

	resp := env.post(t, "/graphs/clutch-factor/remove", url.Values{"player_id": {strconv.Itoa(statsapitest.Doncic)}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("Expected 303, got %d", resp.StatusCode)
	}
	if got := env.record(t).Dashboard.Clutch; len(got) != 2 || got[1].Name != "Nobody" {
		t.Errorf("After removal: %+v", got)
	}
	if resp := env.post(t, "/graphs/clutch-factor/remove", url.Values{"player_id": {"x"}}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckRange(t *testing.T) {
	for _, tc := range []struct {
		r    api.StatRange
		want string
	}{
		{api.StatRange{}, "Choose a start and an end date."},
		{api.StatRange{StartDate: "2021-01-01"}, "Choose a start and an end date."},
		{season2021, ""},
	} {
		if got := checkRange(tc.r); got != tc.want {
			t.Errorf("checkRange(%+v) = %q, want %q", tc.r, got, tc.want)
		}
	}
	if got := checkRange(api.StatRange{StartDate: "1990-01-01", EndDate: "1991-01-01"}); got == "" {
		t.Error("Expected out-of-bounds dates to be rejected")
	}
}
