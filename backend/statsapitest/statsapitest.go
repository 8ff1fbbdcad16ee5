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

// Package statsapitest is an in-memory stand-in for the stats API, used by
// tests and by the mockstats development server.
package statsapitest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ttbt-io/hoopdash/backend/api"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 60 * time.Minute

type account struct {
	user     api.User
	password string
}

// API is the fake stats API.
type API struct {
	Secret []byte
	// Now is the clock used for token issuance and validation.
	Now func() time.Time
	// Debug logs every request.
	Debug bool

	mu       sync.Mutex
	accounts map[string]*account
	nextID   int
	teams    []api.Team
	players  []api.Player
	clutch   map[int]api.ClutchSummary
	stats    map[int]api.PlayerSummary
	failures map[string]int
	calls    map[string]int
}

// New returns an API seeded with a few teams and players.
func New() *API {
	a := &API{
		Secret:   []byte("statsapitest-secret"),
		Now:      time.Now,
		accounts: make(map[string]*account),
		nextID:   1,
		clutch:   make(map[int]api.ClutchSummary),
		stats:    make(map[int]api.PlayerSummary),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	for _, t := range sampleTeams {
		t.LogoURL = fmt.Sprintf("https://cdn.nba.com/logos/nba/%d/global/L/logo.svg", t.ID)
		a.teams = append(a.teams, t)
	}
	for _, p := range samplePlayers {
		p.ImageURL = fmt.Sprintf("https://cdn.nba.com/headshots/nba/latest/1040x760/%d.png", p.PlayerID)
		a.players = append(a.players, p)
	}
	return a
}

// Start serves the API on a local httptest server.
func (a *API) Start() *httptest.Server {
	return httptest.NewServer(a.Handler())
}

// AddUser registers an account directly and returns it with its id set.
func (a *API) AddUser(u api.User, password string) api.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	u.ID = a.nextID
	a.nextID++
	a.accounts[u.Username] = &account{user: u, password: password}
	return u
}

// User returns the stored account.
func (a *API) User(username string) (api.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[username]
	if !ok {
		return api.User{}, false
	}
	return acc.user, true
}

// Token mints a token for username that expires TokenTTL from now.
func (a *API) Token(username string) string {
	return a.TokenExpiring(username, a.Now().Add(TokenTTL))
}

// TokenExpiring mints a token with an explicit expiry.
func (a *API) TokenExpiring(username string, exp time.Time) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": exp.Unix(),
	}).SignedString(a.Secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// SetClutch overrides the clutch summary of a player.
func (a *API) SetClutch(playerID int, s api.ClutchSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clutch[playerID] = s
}

// SetPlayerStats overrides the range summary of a player.
func (a *API) SetPlayerStats(playerID int, s api.PlayerSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats[playerID] = s
}

// Fail makes every request to path answer with status until cleared with 0.
func (a *API) Fail(path string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status == 0 {
		delete(a.failures, path)
		return
	}
	a.failures[path] = status
}

// Calls returns how many requests reached path.
func (a *API) Calls(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

// Handler returns the HTTP handler of the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("GET /users/info", a.authed(a.handleUserInfo))
	mux.HandleFunc("PUT /users/profile", a.authed(a.handleProfile))
	mux.HandleFunc("GET /players", a.authed(a.handleSearchPlayers))
	mux.HandleFunc("GET /teams", a.authed(a.handleSearchTeams))
	mux.HandleFunc("POST /player_stats", a.authed(a.handlePlayerStats))
	mux.HandleFunc("POST /get_clutch_factor", a.authed(a.handleClutch))
	mux.HandleFunc("POST /team_stats", a.authed(a.handleTeamStats))
	mux.HandleFunc("POST /favourite_team_data", a.authed(a.handleFavouriteTeam))
	mux.HandleFunc("GET /player-image", a.authed(a.handlePlayerImage))
	mux.HandleFunc("POST /favourite_player_data", a.authed(a.handleFavouritePlayer))
	mux.HandleFunc("POST /team_comparison", a.authed(a.handleComparison))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.NewString())
		a.mu.Lock()
		a.calls[r.URL.Path]++
		status := a.failures[r.URL.Path]
		a.mu.Unlock()
		if a.Debug {
			log.Printf("[STATSAPI] %s %s", r.Method, r.URL.RequestURI())
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (a *API) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return a.Secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(a.Now))
		if err != nil || !tok.Valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		sub, _ := tok.Claims.GetSubject()
		if _, ok := a.User(sub); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r, sub)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid request body"})
		return false
	}
	return true
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c api.Credentials
	if !decode(w, r, &c) {
		return
	}
	a.mu.Lock()
	acc, ok := a.accounts[c.Username]
	a.mu.Unlock()
	if !ok || acc.password != c.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid username or password"})
		return
	}
	u := acc.user
	writeJSON(w, http.StatusOK, api.AuthResult{Token: a.Token(c.Username), User: &u})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if !decode(w, r, &reg) {
		return
	}
	a.mu.Lock()
	var problems []string
	if _, ok := a.accounts[reg.Username]; ok {
		problems = append(problems, "Username already exists")
	}
	for _, acc := range a.accounts {
		if strings.EqualFold(acc.user.Email, reg.Email) {
			problems = append(problems, "Email already exists")
			break
		}
	}
	a.mu.Unlock()
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"detail": problems})
		return
	}
	u := a.AddUser(api.User{
		Username:  reg.Username,
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	}, reg.Password)
	writeJSON(w, http.StatusOK, api.AuthResult{Token: a.Token(u.Username), User: &u})
}

func (a *API) handleUserInfo(w http.ResponseWriter, r *http.Request, username string) {
	u, _ := a.User(username)
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request, username string) {
	var p api.ProfileUpdate
	if !decode(w, r, &p) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := a.accounts[username]
	if p.Email != "" && !strings.EqualFold(p.Email, acc.user.Email) {
		for _, other := range a.accounts {
			if strings.EqualFold(other.user.Email, p.Email) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already exists"})
				return
			}
		}
		acc.user.Email = p.Email
	}
	if p.FirstName != "" {
		acc.user.FirstName = p.FirstName
	}
	if p.LastName != "" {
		acc.user.LastName = p.LastName
	}
	if p.FavouriteTeamID != 0 {
		acc.user.FavouriteTeamID = p.FavouriteTeamID
		acc.user.FavouriteTeamName = p.FavouriteTeamName
	}
	if p.FavouritePlayerID != 0 {
		acc.user.FavouritePlayerID = p.FavouritePlayerID
		acc.user.FavouritePlayerName = p.FavouritePlayerName
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func matches(name, q string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(q)))
}

func (a *API) handleSearchPlayers(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query().Get("search")
	out := []api.Player{}
	for _, p := range a.players {
		if matches(p.Name, q) && len(out) < 10 {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleSearchTeams(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query().Get("search")
	out := []api.Team{}
	for _, t := range a.teams {
		if matches(t.FullName, q) && len(out) < 10 {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type rangeRequest struct {
	PlayerID int `json:"player_id"`
	TeamID   int `json:"team_id"`
	api.StatRange
}

func (a *API) decodeRange(w http.ResponseWriter, r *http.Request) (rangeRequest, bool) {
	var req rangeRequest
	if !decode(w, r, &req) {
		return req, false
	}
	if err := req.StatRange.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return req, false
	}
	return req, true
}

func (a *API) player(id int) (api.Player, bool) {
	for _, p := range a.players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return api.Player{}, false
}

func (a *API) team(id int) (api.Team, bool) {
	for _, t := range a.teams {
		if t.ID == id {
			return t, true
		}
	}
	return api.Team{}, false
}

// spread returns a stable pseudo-random value in [lo, hi) for the inputs.
func spread(lo, hi float64, seeds ...int) float64 {
	h := 17
	for _, s := range seeds {
		h = h*31 + s
	}
	if h < 0 {
		h = -h
	}
	return lo + float64(h%1000)/1000*(hi-lo)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func (a *API) handlePlayerStats(w http.ResponseWriter, r *http.Request, _ string) {
	req, ok := a.decodeRange(w, r)
	if !ok {
		return
	}
	if _, ok := a.player(req.PlayerID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Player not found"})
		return
	}
	a.mu.Lock()
	s, ok := a.stats[req.PlayerID]
	a.mu.Unlock()
	if !ok {
		id := req.PlayerID
		s = api.PlayerSummary{
			GamesPlayed:          float64(int(spread(20, 400, id, 1))),
			AveragePoints:        round1(spread(8, 32, id, 2)),
			AverageAssists:       round1(spread(1, 11, id, 3)),
			AverageRebounds:      round1(spread(2, 13, id, 4)),
			FieldGoalPercentage:  round1(spread(40, 60, id, 5)),
			ThreePointPercentage: round1(spread(25, 45, id, 6)),
			FreeThrowPercentage:  round1(spread(65, 92, id, 7)),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": map[string]any{"stats": s}})
}

func (a *API) handleClutch(w http.ResponseWriter, r *http.Request, _ string) {
	req, ok := a.decodeRange(w, r)
	if !ok {
		return
	}
	if _, ok := a.player(req.PlayerID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Player not found"})
		return
	}
	a.mu.Lock()
	s, ok := a.clutch[req.PlayerID]
	a.mu.Unlock()
	if !ok {
		id := req.PlayerID
		s = api.ClutchSummary{
			AveragePoints:       round1(spread(5, 35, id, 11)),
			FieldGoalPercentage: round1(spread(35, 60, id, 12)),
			WinPercentage:       round1(spread(30, 80, id, 13)),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": map[string]any{"clutch_stats": s}})
}

func teamStats(id int) api.TeamStats {
	return api.TeamStats{
		FieldGoalPercentage:   round1(spread(43, 50, id, 21)),
		ThreePointPercentage:  round1(spread(32, 39, id, 22)),
		FreeThrowPercentage:   round1(spread(72, 82, id, 23)),
		PointsPerGame:         round1(spread(100, 118, id, 24)),
		OpponentPointsPerGame: round1(spread(100, 118, id, 25)),
		WinPercentage:         round1(spread(25, 75, id, 26)),
		AssistsPerGame:        round1(spread(20, 29, id, 27)),
		BlocksPerGame:         round1(spread(3, 7, id, 28)),
		StealsPerGame:         round1(spread(6, 9, id, 29)),
		TurnoversPerGame:      round1(spread(12, 16, id, 30)),
		ReboundsPerGame:       round1(spread(40, 48, id, 31)),
		PersonalFoulsPerGame:  round1(spread(18, 22, id, 32)),
	}
}

func (a *API) handleTeamStats(w http.ResponseWriter, r *http.Request, _ string) {
	req, ok := a.decodeRange(w, r)
	if !ok {
		return
	}
	if _, ok := a.team(req.TeamID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Team not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": map[string]any{"stats": teamStats(req.TeamID)}})
}

func (a *API) handleFavouriteTeam(w http.ResponseWriter, r *http.Request, _ string) {
	var req struct {
		TeamID int `json:"team_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, ok := a.team(req.TeamID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Team not found"})
		return
	}
	var form strings.Builder
	for i := 0; i < 5; i++ {
		if spread(0, 1, t.ID, 40+i) < 0.5 {
			form.WriteByte('L')
		} else {
			form.WriteByte('W')
		}
	}
	info := teamInfo[t.ID]
	writeJSON(w, http.StatusOK, api.TeamData{
		Trivia: []api.TeamTrivia{{City: info.city, YearFounded: info.founded}},
		Stats:  teamStats(t.ID),
		Form:   form.String(),
	})
}

func (a *API) handlePlayerImage(w http.ResponseWriter, r *http.Request, _ string) {
	name := r.URL.Query().Get("name")
	for _, p := range a.players {
		if strings.EqualFold(p.Name, name) {
			writeJSON(w, http.StatusOK, api.PlayerImage{ImageURL: p.ImageURL, PlayerID: p.PlayerID})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Player not found"})
}

func (a *API) handleFavouritePlayer(w http.ResponseWriter, r *http.Request, _ string) {
	var req struct {
		PlayerID int `json:"player_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, ok := a.player(req.PlayerID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Player not found"})
		return
	}
	bio := playerBio[p.PlayerID]
	logo := func(id int) string {
		if id == 0 {
			return ""
		}
		return fmt.Sprintf("https://cdn.nba.com/logos/nba/%d/global/L/logo.svg", id)
	}
	writeJSON(w, http.StatusOK, api.PlayerData{
		Trivia:           []api.PlayerTrivia{{Birthdate: bio.birthdate, Height: bio.height, Position: bio.position, Country: bio.country}},
		TeamLogoURL:      logo(bio.team),
		DraftTeamLogoURL: logo(bio.draftTeam),
	})
}

func (a *API) handleComparison(w http.ResponseWriter, r *http.Request, _ string) {
	var req api.ComparisonRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := a.team(req.TeamAID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Team not found"})
		return
	}
	if _, ok := a.team(req.TeamBID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Team not found"})
		return
	}
	if req.NumGames <= 0 || req.NumGames > 82 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "num_games must be between 1 and 82"})
		return
	}
	lo, hi := 20.0, 35.0
	if req.GamePart == "game" {
		lo, hi = 95, 130
	}
	series := func(teamID int) []api.TrendPoint {
		out := make([]api.TrendPoint, req.NumGames)
		day := time.Date(2022, time.April, 10, 0, 0, 0, 0, time.UTC)
		for i := range out {
			d := day.AddDate(0, 0, -2*(req.NumGames-1-i))
			out[i] = api.TrendPoint{GameDate: d.Format(api.DateLayout), Value: float64(int(spread(lo, hi, teamID, i, len(req.GamePart))))}
		}
		return out
	}
	writeJSON(w, http.StatusOK, api.TeamComparison{TeamA: series(req.TeamAID), TeamB: series(req.TeamBID)})
}

// Teams returns the seeded teams sorted by name.
func (a *API) Teams() []api.Team {
	out := append([]api.Team(nil), a.teams...)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// Players returns the seeded players.
func (a *API) Players() []api.Player {
	return append([]api.Player(nil), a.players...)
}
