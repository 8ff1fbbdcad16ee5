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

package statsapitest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/session"
)

func TestRegisterLoginFlow(t *testing.T) {
	fake := New()
	srv := fake.Start()
	defer srv.Close()
	ctx := context.Background()
	c := api.New(srv.URL)

	reg := api.Registration{FirstName: "Jimmy", LastName: "Butler", Username: "jimmyb", Email: "jb@heat.com", Password: "buckets"}
	resp, res, err := c.Register(ctx, reg)
	if err != nil || resp.Status != http.StatusOK || res.Token == "" {
		t.Fatalf("Register: %v %+v %+v", err, resp, res)
	}
	claims, err := session.Decode(res.Token)
	if err != nil || claims.Subject != "jimmyb" {
		t.Fatalf("claims = %+v, %v", claims, err)
	}
	if d := time.Until(claims.ExpiresAt); d < 59*time.Minute || d > 61*time.Minute {
		t.Errorf("token lifetime = %v", d)
	}

	resp, _, _ = c.Register(ctx, reg)
	if resp.Status != http.StatusBadRequest || len(resp.Detail()) != 2 {
		t.Errorf("duplicate Register = %d %v", resp.Status, resp.Detail())
	}

	resp, _, _ = c.Login(ctx, api.Credentials{Username: "jimmyb", Password: "wrong"})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("bad Login status = %d", resp.Status)
	}

	authed := c.WithTokens(session.NewMemory(res.Token))
	resp, u, err := authed.UserInfo(ctx)
	if err != nil || resp.Status != http.StatusOK || u.Email != "jb@heat.com" {
		t.Fatalf("UserInfo: %v %+v %+v", err, resp, u)
	}
	resp, _, _ = c.UserInfo(ctx)
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("anonymous UserInfo status = %d", resp.Status)
	}
}

func TestDataEndpoints(t *testing.T) {
	fake := New()
	fake.AddUser(api.User{Username: "fan", Email: "fan@example.com"}, "password")
	srv := fake.Start()
	defer srv.Close()
	ctx := context.Background()
	c := api.New(srv.URL).WithTokens(session.NewMemory(fake.Token("fan")))

	resp, teams, err := c.SearchTeams(ctx, "heat")
	if err != nil || resp.Status != http.StatusOK || len(teams) != 1 || teams[0].ID != Heat {
		t.Fatalf("SearchTeams: %v %+v %+v", err, resp, teams)
	}

	resp, cmp, err := c.CompareTeams(ctx, api.ComparisonRequest{TeamAID: Heat, TeamBID: Celtics, NumGames: 10, GamePart: "4th"})
	if err != nil || resp.Status != http.StatusOK || len(cmp.TeamA) != 10 || len(cmp.TeamB) != 10 {
		t.Fatalf("CompareTeams: %v %+v", err, resp)
	}
	if cmp.TeamA[0].GameDate >= cmp.TeamA[9].GameDate {
		t.Errorf("games not oldest first: %s .. %s", cmp.TeamA[0].GameDate, cmp.TeamA[9].GameDate)
	}

	fake.SetClutch(Curry, api.ClutchSummary{AveragePoints: 30, WinPercentage: 80, FieldGoalPercentage: 50})
	r := api.StatRange{StartDate: "2010-01-01", EndDate: "2015-01-01"}
	resp, cl, _ := c.ClutchFactor(ctx, Curry, r)
	if resp.Status != http.StatusOK || cl.AveragePoints != 30 {
		t.Errorf("ClutchFactor = %d %+v", resp.Status, cl)
	}
	resp, _, _ = c.ClutchFactor(ctx, Curry, api.StatRange{StartDate: "2001-01-01", EndDate: "2015-01-01"})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("out of range ClutchFactor status = %d", resp.Status)
	}

	fake.Fail("/teams", http.StatusServiceUnavailable)
	resp, _, _ = c.SearchTeams(ctx, "heat")
	if resp.Status != http.StatusServiceUnavailable {
		t.Errorf("forced failure status = %d", resp.Status)
	}
	if fake.Calls("/teams") != 2 {
		t.Errorf("Calls(/teams) = %d", fake.Calls("/teams"))
	}
}
