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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Dates accepted by the stats API.
var (
	MinDate = time.Date(2006, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2022, time.December, 31, 0, 0, 0, 0, time.UTC)
)

const DateLayout = "2006-01-02"

// User is the account record returned by /users/info.
type User struct {
	ID                  int    `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	FavouriteTeamName   string `json:"favourite_team_name,omitempty"`
	FavouriteTeamID     int    `json:"favourite_team_id,omitempty"`
	FavouritePlayerName string `json:"favourite_player_name,omitempty"`
	FavouritePlayerID   int    `json:"favourite_player_id,omitempty"`
}

// HasFavourites reports whether both favourites are set.
func (u User) HasFavourites() bool {
	return u.FavouriteTeamID != 0 && u.FavouritePlayerID != 0
}

type Player struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Jersey   string `json:"jersey,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type Team struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// PlayerSummary is a player's averages over a date range.
type PlayerSummary struct {
	GamesPlayed          float64 `json:"games_played"`
	AveragePoints        float64 `json:"average_points"`
	AverageAssists       float64 `json:"average_assists"`
	AverageRebounds      float64 `json:"average_rebounds"`
	FieldGoalPercentage  float64 `json:"field_goal_percentage"`
	ThreePointPercentage float64 `json:"three_point_percentage"`
	FreeThrowPercentage  float64 `json:"free_throw_percentage"`
}

// Value returns the metric with the given JSON key.
func (s PlayerSummary) Value(key string) float64 {
	switch key {
	case "games_played":
		return s.GamesPlayed
	case "average_points":
		return s.AveragePoints
	case "average_assists":
		return s.AverageAssists
	case "average_rebounds":
		return s.AverageRebounds
	case "field_goal_percentage":
		return s.FieldGoalPercentage
	case "three_point_percentage":
		return s.ThreePointPercentage
	case "free_throw_percentage":
		return s.FreeThrowPercentage
	}
	return 0
}

// ClutchSummary is a player's record in clutch games.
type ClutchSummary struct {
	AveragePoints       float64 `json:"average_points"`
	FieldGoalPercentage float64 `json:"field_goal_percentage"`
	WinPercentage       float64 `json:"win_percentage"`
}

type TeamStats struct {
	FieldGoalPercentage   float64 `json:"field_goal_percentage"`
	ThreePointPercentage  float64 `json:"three_point_percentage"`
	FreeThrowPercentage   float64 `json:"free_throw_percentage"`
	PointsPerGame         float64 `json:"points_per_game"`
	OpponentPointsPerGame float64 `json:"opponent_points_per_game"`
	WinPercentage         float64 `json:"win_percentage"`
	AssistsPerGame        float64 `json:"assists_per_game"`
	BlocksPerGame         float64 `json:"blocks_per_game"`
	StealsPerGame         float64 `json:"steals_per_game"`
	TurnoversPerGame      float64 `json:"turnovers_per_game"`
	ReboundsPerGame       float64 `json:"rebounds_per_game"`
	PersonalFoulsPerGame  float64 `json:"personal_fouls_per_game"`
}

type TeamTrivia struct {
	City        string `json:"city"`
	YearFounded int    `json:"year_founded"`
}

// TeamData is the favourite team highlight.
type TeamData struct {
	Trivia []TeamTrivia `json:"trivia"`
	Stats  TeamStats    `json:"stats"`
	Form   string       `json:"form"`
}

type PlayerTrivia struct {
	Birthdate string `json:"birthdate"`
	Height    string `json:"height"`
	Position  string `json:"position,omitempty"`
	Country   string `json:"country,omitempty"`
}

// PlayerData is the favourite player highlight.
type PlayerData struct {
	Trivia           []PlayerTrivia `json:"trivia"`
	TeamLogoURL      string         `json:"team_logo_url"`
	DraftTeamLogoURL string         `json:"draft_team_logo_url"`
}

type PlayerImage struct {
	ImageURL string `json:"image_url"`
	PlayerID int    `json:"player_id"`
}

// StatRange is an inclusive date range, formatted YYYY-MM-DD.
type StatRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Complete reports whether both ends are set.
func (r StatRange) Complete() bool {
	return r.StartDate != "" && r.EndDate != ""
}

// Validate checks the format, order and bounds of a complete range.
func (r StatRange) Validate() error {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q", r.StartDate)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q", r.EndDate)
	}
	if start.Before(MinDate) || end.After(MaxDate) {
		return fmt.Errorf("dates must be between %s and %s", MinDate.Format(DateLayout), MaxDate.Format(DateLayout))
	}
	if end.Before(start) {
		return fmt.Errorf("end date is before start date")
	}
	return nil
}

type TrendPoint struct {
	GameDate string  `json:"game_date"`
	Value    float64 `json:"value"`
}

// TeamComparison holds one trend series per team, oldest game first.
type TeamComparison struct {
	TeamA []TrendPoint `json:"team_a"`
	TeamB []TrendPoint `json:"team_b"`
}

// ProfileUpdate is the body of PUT /users/profile.
type ProfileUpdate struct {
	FirstName           string `json:"first_name,omitempty"`
	LastName            string `json:"last_name,omitempty"`
	Email               string `json:"email,omitempty"`
	FavouriteTeamID     int    `json:"favourite_team_id,omitempty"`
	FavouriteTeamName   string `json:"favourite_team_name,omitempty"`
	FavouritePlayerID   int    `json:"favourite_player_id,omitempty"`
	FavouritePlayerName string `json:"favourite_player_name,omitempty"`
}

// FormatBirthdate turns an ISO date (optionally with a time part) into
// dd.mm.yyyy.
func FormatBirthdate(iso string) string {
	if iso == "" {
		return "N/A"
	}
	datePart := iso
	if len(datePart) > len(DateLayout) {
		datePart = datePart[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

// ConvertHeight turns "6-9" into `6'9" (206 cm)`.
func ConvertHeight(h string) string {
	if h == "" {
		return "N/A"
	}
	ft, in, ok := strings.Cut(h, "-")
	if !ok {
		return h
	}
	feet, err1 := strconv.Atoi(ft)
	inches, err2 := strconv.Atoi(in)
	if err1 != nil || err2 != nil {
		return h
	}
	cm := math.Round(float64(feet)*30.48 + float64(inches)*2.54)
	return fmt.Sprintf("%d'%d\" (%d cm)", feet, inches, int(cm))
}

// FormLetters splits a recent-form string like "WLWWL" into results.
// Characters other than W and L are skipped.
func FormLetters(form string) []string {
	var out []string
	for _, r := range strings.ToUpper(form) {
		if r == 'W' || r == 'L' {
			out = append(out, string(r))
		}
	}
	return out
}
