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

// Search box names
const (
	BoxSetupTeam   = "setup-team"
	BoxSetupPlayer = "setup-player"
	BoxPlayerA     = "player-a"
	BoxPlayerB     = "player-b"
	BoxTeamA       = "team-a"
	BoxTeamB       = "team-b"
	BoxClutch      = "clutch"
)

// Team comparison choices
var (
	GameCounts = []int{5, 10, 15, 20, 25}
	GameParts  = []GamePart{
		{"1st", "1st quarter"},
		{"2nd", "2nd quarter"},
		{"3rd", "3rd quarter"},
		{"4th", "4th quarter"},
		{"game", "Whole game"},
	}
)

type GamePart struct {
	Value string
	Label string
}

const (
	DefaultNumGames = 10
	DefaultGamePart = "game"

	// MaxClutchPlayers is the most players the clutch chart compares.
	MaxClutchPlayers = 10
)
