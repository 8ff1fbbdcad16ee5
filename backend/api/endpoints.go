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

package api

import (
	"context"
	"net/http"
	"net/url"
)

// Credentials is the body of POST /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of POST /register.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type playerRangeRequest struct {
	PlayerID int `json:"player_id"`
	StatRange
}

type teamRangeRequest struct {
	TeamID int `json:"team_id"`
	StatRange
}

// ComparisonRequest is the body of POST /team_comparison.
type ComparisonRequest struct {
	TeamAID  int    `json:"team_a_id"`
	TeamBID  int    `json:"team_b_id"`
	NumGames int    `json:"num_games"`
	GamePart string `json:"game_part"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*Response, AuthResult, error) {
	return call[AuthResult](ctx, c, http.MethodPost, "/login", creds, nil)
}

func (c *Client) Register(ctx context.Context, reg Registration) (*Response, AuthResult, error) {
	return call[AuthResult](ctx, c, http.MethodPost, "/register", reg, nil)
}

func (c *Client) UserInfo(ctx context.Context) (*Response, User, error) {
	return call[User](ctx, c, http.MethodGet, "/users/info", nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) (*Response, User, error) {
	return call[User](ctx, c, http.MethodPut, "/users/profile", p, nil)
}

func (c *Client) SearchPlayers(ctx context.Context, q string) (*Response, []Player, error) {
	return call[[]Player](ctx, c, http.MethodGet, "/players?search="+url.QueryEscape(q), nil, &Options{Cacheable: true})
}

func (c *Client) SearchTeams(ctx context.Context, q string) (*Response, []Team, error) {
	return call[[]Team](ctx, c, http.MethodGet, "/teams?search="+url.QueryEscape(q), nil, &Options{Cacheable: true})
}

// PlayerStats returns a player's averages over r.
func (c *Client) PlayerStats(ctx context.Context, playerID int, r StatRange) (*Response, PlayerSummary, error) {
	type payload struct {
		Player struct {
			Stats PlayerSummary `json:"stats"`
		} `json:"player"`
	}
	resp, out, err := call[payload](ctx, c, http.MethodPost, "/player_stats", playerRangeRequest{playerID, r}, nil)
	return resp, out.Player.Stats, err
}

// ClutchFactor returns a player's clutch-game summary over r.
func (c *Client) ClutchFactor(ctx context.Context, playerID int, r StatRange) (*Response, ClutchSummary, error) {
	type payload struct {
		Player struct {
			ClutchStats ClutchSummary `json:"clutch_stats"`
		} `json:"player"`
	}
	resp, out, err := call[payload](ctx, c, http.MethodPost, "/get_clutch_factor", playerRangeRequest{playerID, r}, nil)
	return resp, out.Player.ClutchStats, err
}

// TeamStats returns a team's season-style aggregates over r.
func (c *Client) TeamStats(ctx context.Context, teamID int, r StatRange) (*Response, TeamStats, error) {
	type payload struct {
		Team struct {
			Stats TeamStats `json:"stats"`
		} `json:"team"`
	}
	resp, out, err := call[payload](ctx, c, http.MethodPost, "/team_stats", teamRangeRequest{teamID, r}, nil)
	return resp, out.Team.Stats, err
}

func (c *Client) FavouriteTeamData(ctx context.Context, teamID int) (*Response, TeamData, error) {
	return call[TeamData](ctx, c, http.MethodPost, "/favourite_team_data", map[string]int{"team_id": teamID}, nil)
}

func (c *Client) PlayerImage(ctx context.Context, name string) (*Response, PlayerImage, error) {
	return call[PlayerImage](ctx, c, http.MethodGet, "/player-image?name="+url.QueryEscape(name), nil, nil)
}

func (c *Client) FavouritePlayerData(ctx context.Context, playerID int) (*Response, PlayerData, error) {
	return call[PlayerData](ctx, c, http.MethodPost, "/favourite_player_data", map[string]int{"player_id": playerID}, nil)
}

func (c *Client) CompareTeams(ctx context.Context, req ComparisonRequest) (*Response, TeamComparison, error) {
	return call[TeamComparison](ctx, c, http.MethodPost, "/team_comparison", req, nil)
}
