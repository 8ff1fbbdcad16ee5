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
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/charts"
	"github.com/ttbt-io/hoopdash/backend/forms"
)

//go:embed templates
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"birthdate":   api.FormatBirthdate,
	"height":      api.ConvertHeight,
	"formLetters": api.FormLetters,
	"metric":      charts.FormatMetric,
	"lower":       strings.ToLower,
}

// pageSet holds one template per page, each combined with the layout and
// the shared partials.
type pageSet struct {
	pages map[string]*template.Template
}

func loadPages() (*pageSet, error) {
	base, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	names, err := fs.Glob(templateFiles, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	ps := &pageSet{pages: make(map[string]*template.Template)}
	for _, name := range names {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if t, err = t.ParseFS(templateFiles, name); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		ps.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return ps, nil
}

// pageView is what every page template receives.
type pageView struct {
	Title  string
	User   *api.User
	Active string
	// Search loads the live search script.
	Search bool
	Notice string
	Error  string
	Data   any
}

func (a *app) render(w http.ResponseWriter, status int, name string, v pageView) {
	t, ok := a.pages.pages[name]
	if !ok {
		log.Printf("[PAGES] Unknown page %q", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		log.Printf("[PAGES] Rendering %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (a *app) renderError(w http.ResponseWriter, status int, msg string) {
	a.render(w, status, "error", pageView{Title: http.StatusText(status), Error: msg})
}

// upstreamStatus is the status a page gets when the stats API rejected a
// form: client errors pass through, anything else is a bad gateway.
func upstreamStatus(s int) int {
	if s >= 400 && s < 500 {
		return s
	}
	return http.StatusBadGateway
}

type fieldView struct {
	forms.Field
	Value string
	Error string
}

type formView struct {
	Action  string
	Submit  string
	Fields  []fieldView
	General string
}

func newFormView(s forms.Schema, action, submit string, values map[string]string, errs forms.Errors) formView {
	fv := formView{Action: action, Submit: submit, General: errs[forms.General]}
	for _, f := range s.Fields {
		v := values[f.Name]
		if f.Type == "password" {
			v = ""
		}
		fv.Fields = append(fv.Fields, fieldView{Field: f, Value: v, Error: errs[f.Name]})
	}
	return fv
}

// searchBoxView is the markup state of a live search box.
type searchBoxView struct {
	Name        string
	Label       string
	Placeholder string
	Query       string
	Image       string
}

func playerBoxView(name, label string, p *api.Player) searchBoxView {
	v := searchBoxView{Name: name, Label: label, Placeholder: "Search players..."}
	if p != nil {
		v.Query, v.Image = p.Name, p.ImageURL
	}
	return v
}

func teamBoxView(name, label string, t *api.Team) searchBoxView {
	v := searchBoxView{Name: name, Label: label, Placeholder: "Search teams..."}
	if t != nil {
		v.Query, v.Image = t.FullName, t.LogoURL
	}
	return v
}

func (a *app) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "login", pageView{
		Title: "Sign in",
		Data:  newFormView(forms.Login, "/login", "Sign in", nil, nil),
	})
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	values := forms.Login.Values(r.PostFormValue)
	fail := func(status int, errs forms.Errors) {
		a.render(w, status, "login", pageView{
			Title: "Sign in",
			Data:  newFormView(forms.Login, "/login", "Sign in", values, errs),
		})
	}
	if errs := forms.Login.Validate(values); errs != nil {
		fail(http.StatusBadRequest, errs)
		return
	}

	resp, res, err := a.api.Login(r.Context(), api.Credentials{Username: values["username"], Password: values["password"]})
	if err != nil {
		log.Printf("[AUTH] Login: %v", err)
		fail(http.StatusBadGateway, forms.Errors{forms.General: forms.GenericFailure})
		return
	}
	if resp.Status != http.StatusOK || res.Token == "" {
		a.debugf("[AUTH] Login rejected with %d: %v", resp.Status, resp.Detail())
		fail(upstreamStatus(resp.Status), forms.ServerErrors(forms.KindLogin, resp.Detail()))
		return
	}
	if err := browserFrom(r).Set(res.Token); err != nil {
		log.Printf("[AUTH] Storing token: %v", err)
		a.renderError(w, http.StatusInternalServerError, "Could not start your session.")
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (a *app) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "register", pageView{
		Title: "Create account",
		Data:  newFormView(forms.Register, "/register", "Sign up", nil, nil),
	})
}

func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	values := forms.Register.Values(r.PostFormValue)
	fail := func(status int, errs forms.Errors) {
		a.render(w, status, "register", pageView{
			Title: "Create account",
			Data:  newFormView(forms.Register, "/register", "Sign up", values, errs),
		})
	}
	if errs := forms.Register.Validate(values); errs != nil {
		fail(http.StatusBadRequest, errs)
		return
	}

	resp, res, err := a.api.Register(r.Context(), api.Registration{
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Username:  values["username"],
		Email:     values["email"],
		Password:  values["password"],
	})
	if err != nil {
		log.Printf("[AUTH] Register: %v", err)
		fail(http.StatusBadGateway, forms.Errors{forms.General: forms.GenericFailure})
		return
	}
	if !resp.OK() {
		fail(upstreamStatus(resp.Status), forms.ServerErrors(forms.KindRegister, resp.Detail()))
		return
	}
	if res.Token != "" {
		if err := browserFrom(r).Set(res.Token); err != nil {
			log.Printf("[AUTH] Storing token: %v", err)
			a.renderError(w, http.StatusInternalServerError, "Could not start your session.")
			return
		}
	}
	log.Printf("[AUTH] Registered %s", maskEmail(values["email"]))
	http.Redirect(w, r, "/setup", http.StatusSeeOther)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	if err := b.Clear(); err != nil {
		log.Printf("[AUTH] Logout: %v", err)
	}
	// The next user of this browser must not inherit these picks.
	if err := b.UpdateDashboard((*DashboardState).ResetSelections); err != nil {
		log.Printf("[AUTH] Logout: resetting dashboard: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type setupView struct {
	Team, Player searchBoxView
	Saved        bool
	TeamName     string
	PlayerName   string
}

// setupChoices returns the pending setup selections, falling back to the
// user's current favourites.
func setupChoices(d DashboardState, u *api.User) (*api.Team, *api.Player) {
	team, player := d.SetupTeam, d.SetupPlayer
	if team == nil && u.FavouriteTeamID != 0 {
		team = &api.Team{ID: u.FavouriteTeamID, FullName: u.FavouriteTeamName}
	}
	if player == nil && u.FavouritePlayerID != 0 {
		player = &api.Player{PlayerID: u.FavouritePlayerID, Name: u.FavouritePlayerName}
	}
	return team, player
}

func (a *app) setupPage(r *http.Request, saved bool) pageView {
	user := getUser(r)
	team, player := setupChoices(browserFrom(r).Dashboard(), user)
	v := setupView{
		Team:   teamBoxView(BoxSetupTeam, "Favourite team", team),
		Player: playerBoxView(BoxSetupPlayer, "Favourite player", player),
		Saved:  saved,
	}
	if saved {
		v.TeamName, v.PlayerName = user.FavouriteTeamName, user.FavouritePlayerName
	}
	return pageView{Title: "Your favourites", User: user, Active: "setup", Search: !saved, Data: v}
}

func (a *app) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "setup", a.setupPage(r, r.URL.Query().Get("saved") == "1"))
}

func (a *app) handleSetup(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	user := getUser(r)
	team, player := setupChoices(b.Dashboard(), user)
	if team == nil || player == nil {
		v := a.setupPage(r, false)
		v.Error = "Please choose both a favourite team and a favourite player."
		a.render(w, http.StatusBadRequest, "setup", v)
		return
	}

	resp, _, err := a.api.WithTokens(b).UpdateProfile(r.Context(), api.ProfileUpdate{
		FavouriteTeamID:     team.ID,
		FavouriteTeamName:   team.FullName,
		FavouritePlayerID:   player.PlayerID,
		FavouritePlayerName: player.Name,
	})
	if err != nil {
		log.Printf("[API] Saving favourites: %v", err)
		a.renderError(w, http.StatusBadGateway, "The stats service is unreachable. Please try again later.")
		return
	}
	if !resp.OK() {
		v := a.setupPage(r, false)
		v.Error = forms.ServerErrors(forms.KindProfile, resp.Detail())[forms.General]
		a.render(w, upstreamStatus(resp.Status), "setup", v)
		return
	}
	if err := b.UpdateDashboard(func(d *DashboardState) { d.SetupTeam, d.SetupPlayer = nil, nil }); err != nil {
		log.Printf("[SESSION] Clearing setup selection: %v", err)
	}
	http.Redirect(w, r, "/setup?saved=1", http.StatusSeeOther)
}

type teamHighlight struct {
	Name    string
	LogoURL string
	Data    *api.TeamData
	Trivia  *api.TeamTrivia
}

type playerHighlight struct {
	Name     string
	ImageURL string
	Data     *api.PlayerData
	Trivia   *api.PlayerTrivia
}

type homeView struct {
	Team   *teamHighlight
	Player *playerHighlight
}

// favouriteTeam gathers the highlight of the user's team. Failed lookups
// leave parts of it empty.
func (a *app) favouriteTeam(r *http.Request, c *api.Client, u *api.User) *teamHighlight {
	if u.FavouriteTeamID == 0 && u.FavouriteTeamName == "" {
		return nil
	}
	h := &teamHighlight{Name: u.FavouriteTeamName}
	teamID := u.FavouriteTeamID
	if u.FavouriteTeamName != "" {
		resp, teams, err := c.SearchTeams(r.Context(), u.FavouriteTeamName)
		if err == nil && resp.Status == http.StatusOK && len(teams) > 0 {
			match := teams[0]
			for _, t := range teams {
				if strings.EqualFold(t.FullName, u.FavouriteTeamName) {
					match = t
					break
				}
			}
			h.LogoURL = match.LogoURL
			teamID = match.ID
		}
	}
	if teamID == 0 {
		return h
	}
	resp, data, err := c.FavouriteTeamData(r.Context(), teamID)
	if err != nil {
		log.Printf("[API] Favourite team data: %v", err)
		return h
	}
	if resp.Status == http.StatusOK {
		h.Data = &data
		if len(data.Trivia) > 0 {
			h.Trivia = &data.Trivia[0]
		}
	}
	return h
}

func (a *app) favouritePlayer(r *http.Request, c *api.Client, u *api.User) *playerHighlight {
	if u.FavouritePlayerName == "" {
		return nil
	}
	h := &playerHighlight{Name: u.FavouritePlayerName}
	playerID := u.FavouritePlayerID
	resp, img, err := c.PlayerImage(r.Context(), u.FavouritePlayerName)
	if err == nil && resp.Status == http.StatusOK {
		h.ImageURL = img.ImageURL
		if img.PlayerID != 0 {
			playerID = img.PlayerID
		}
	}
	if playerID == 0 {
		return h
	}
	resp, data, err := c.FavouritePlayerData(r.Context(), playerID)
	if err != nil {
		log.Printf("[API] Favourite player data: %v", err)
		return h
	}
	if resp.Status == http.StatusOK {
		h.Data = &data
		if len(data.Trivia) > 0 {
			h.Trivia = &data.Trivia[0]
		}
	}
	return h
}

func (a *app) handleHome(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	c := a.api.WithTokens(browserFrom(r))
	a.render(w, http.StatusOK, "home", pageView{
		Title:  "Home",
		User:   user,
		Active: "home",
		Data: homeView{
			Team:   a.favouriteTeam(r, c, user),
			Player: a.favouritePlayer(r, c, user),
		},
	})
}

type profileView struct {
	Form formView
}

func profileValues(u *api.User) map[string]string {
	return map[string]string{"first_name": u.FirstName, "last_name": u.LastName, "email": u.Email}
}

func (a *app) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	v := pageView{
		Title:  "Profile",
		User:   user,
		Active: "profile",
		Data:   profileView{Form: newFormView(forms.Profile, "/profile", "Save", profileValues(user), nil)},
	}
	if r.URL.Query().Get("saved") == "1" {
		v.Notice = "Profile updated."
	}
	a.render(w, http.StatusOK, "profile", v)
}

func (a *app) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := getUser(r)
	values := forms.Profile.Values(r.PostFormValue)
	fail := func(status int, errs forms.Errors) {
		a.render(w, status, "profile", pageView{
			Title:  "Profile",
			User:   user,
			Active: "profile",
			Data:   profileView{Form: newFormView(forms.Profile, "/profile", "Save", values, errs)},
		})
	}
	if errs := forms.Profile.Validate(values); errs != nil {
		fail(http.StatusBadRequest, errs)
		return
	}

	resp, _, err := a.api.WithTokens(browserFrom(r)).UpdateProfile(r.Context(), api.ProfileUpdate{
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Email:     values["email"],
	})
	if err != nil {
		log.Printf("[API] Updating profile: %v", err)
		fail(http.StatusBadGateway, forms.Errors{forms.General: forms.GenericFailure})
		return
	}
	if !resp.OK() {
		fail(upstreamStatus(resp.Status), forms.ServerErrors(forms.KindProfile, resp.Detail()))
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}
