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

import "github.com/ttbt-io/hoopdash/backend/api"

// Team and player ids follow stats.nba.com.
const (
	Celtics  = 1610612738
	Lakers   = 1610612747
	Heat     = 1610612748
	Warriors = 1610612744
	Nuggets  = 1610612743
	Bulls    = 1610612741
	Mavs     = 1610612742
	Bucks    = 1610612749

	LeBron  = 2544
	Curry   = 201939
	Durant  = 201142
	Jokic   = 203999
	Tatum   = 1628369
	Butler  = 202710
	Doncic  = 1629029
	Giannis = 203507
)

var sampleTeams = []api.Team{
	{ID: Celtics, FullName: "Boston Celtics"},
	{ID: Lakers, FullName: "Los Angeles Lakers"},
	{ID: Heat, FullName: "Miami Heat"},
	{ID: Warriors, FullName: "Golden State Warriors"},
	{ID: Nuggets, FullName: "Denver Nuggets"},
	{ID: Bulls, FullName: "Chicago Bulls"},
	{ID: Mavs, FullName: "Dallas Mavericks"},
	{ID: Bucks, FullName: "Milwaukee Bucks"},
}

var samplePlayers = []api.Player{
	{PlayerID: LeBron, Name: "LeBron James", Jersey: "23"},
	{PlayerID: Curry, Name: "Stephen Curry", Jersey: "30"},
	{PlayerID: Durant, Name: "Kevin Durant", Jersey: "35"},
	{PlayerID: Jokic, Name: "Nikola Jokic", Jersey: "15"},
	{PlayerID: Tatum, Name: "Jayson Tatum", Jersey: "0"},
	{PlayerID: Butler, Name: "Jimmy Butler", Jersey: "22"},
	{PlayerID: Doncic, Name: "Luka Doncic", Jersey: "77"},
	{PlayerID: Giannis, Name: "Giannis Antetokounmpo", Jersey: "34"},
}

var teamInfo = map[int]struct {
	city    string
	founded int
}{
	Celtics:  {"Boston", 1946},
	Lakers:   {"Los Angeles", 1948},
	Heat:     {"Miami", 1988},
	Warriors: {"San Francisco", 1946},
	Nuggets:  {"Denver", 1976},
	Bulls:    {"Chicago", 1966},
	Mavs:     {"Dallas", 1980},
	Bucks:    {"Milwaukee", 1968},
}

var playerBio = map[int]struct {
	birthdate, height, position, country string
	team, draftTeam                      int
}{
	LeBron:  {"1984-12-30T00:00:00", "6-9", "Forward", "USA", Lakers, 1610612739},
	Curry:   {"1988-03-14T00:00:00", "6-2", "Guard", "USA", Warriors, Warriors},
	Durant:  {"1988-09-29T00:00:00", "6-11", "Forward", "USA", 1610612756, 1610612760},
	Jokic:   {"1995-02-19T00:00:00", "6-11", "Center", "Serbia", Nuggets, Nuggets},
	Tatum:   {"1998-03-03T00:00:00", "6-8", "Forward-Guard", "USA", Celtics, Celtics},
	Butler:  {"1989-09-14T00:00:00", "6-7", "Forward", "USA", Heat, Bulls},
	Doncic:  {"1999-02-28T00:00:00", "6-7", "Forward-Guard", "Slovenia", Mavs, 1610612737},
	Giannis: {"1994-12-06T00:00:00", "6-11", "Forward", "Greece", Bucks, Bucks},
}
