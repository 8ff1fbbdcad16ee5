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
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/search"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message types for WebSocket communication
const (
	MsgTypeInput    = "INPUT"
	MsgTypeFocus    = "FOCUS"
	MsgTypeDismiss  = "DISMISS"
	MsgTypeSelect   = "SELECT"
	MsgTypePing     = "PING"
	MsgTypePong     = "PONG"
	MsgTypeState    = "STATE"
	MsgTypeSelected = "SELECTED"
	MsgTypeError    = "ERROR"
)

// SearchItem is one entry of a result dropdown.
type SearchItem struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Image string `json:"image,omitempty"`
}

// Message represents a WebSocket message
type Message struct {
	Type  string `json:"type"`
	Box   string `json:"box,omitempty"`
	Query string `json:"query,omitempty"`
	Index int    `json:"index,omitempty"`
	// ID is the id of the item shown at Index when a SELECT is sent.
	ID    int    `json:"id,omitempty"`

	Seq     uint64       `json:"seq,omitempty"`
	Open    bool         `json:"open,omitempty"`
	Loading bool         `json:"loading,omitempty"`
	Items   []SearchItem `json:"items,omitempty"`
	Label   string       `json:"label,omitempty"`
	Reload  bool         `json:"reload,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// liveBox is the part of a search.Box the connection drives.
type liveBox interface {
	Input(q string)
	Focus()
	Dismiss()
	Close()
	Filters() []search.Filter
	check(i, id int) error
	pick(i, id int) error
}

type typedBox[T any] struct {
	*search.Box[T]
	item func(T) SearchItem
}

// matches accepts the item with the given id. Zero accepts anything.
func (b typedBox[T]) matches(id int) func(T) bool {
	if id == 0 {
		return nil
	}
	return func(v T) bool { return b.item(v).ID == id }
}

func (b typedBox[T]) check(i, id int) error {
	st := b.State()
	if i < 0 || i >= len(st.Results) {
		return fmt.Errorf("search %s: index %d out of range [0,%d)", st.Name, i, len(st.Results))
	}
	if m := b.matches(id); m != nil && !m(st.Results[i]) {
		return fmt.Errorf("search %s: index %d: %w", st.Name, i, search.ErrResultsChanged)
	}
	return nil
}

func (b typedBox[T]) pick(i, id int) error {
	_, err := b.SelectMatch(i, b.matches(id))
	return err
}

func playerItem(p api.Player) SearchItem {
	return SearchItem{ID: p.PlayerID, Label: p.Name, Image: p.ImageURL}
}

func teamItem(t api.Team) SearchItem {
	return SearchItem{ID: t.ID, Label: t.FullName, Image: t.LogoURL}
}

// wsClient is a middleman between the websocket connection and the search
// boxes of one page.
type wsClient struct {
	app     *app
	browser *BrowserSession
	user    *api.User

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan Message
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	boxes  map[string]liveBox
}

func (a *app) newWSClient(conn *websocket.Conn, b *BrowserSession, user *api.User) *wsClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &wsClient{
		app:     a,
		browser: b,
		user:    user,
		conn:    conn,
		send:    make(chan Message, 256),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		boxes:   make(map[string]liveBox),
	}
	dash := b.Dashboard()
	client := a.api.WithTokens(b)

	players := func(ctx context.Context, q string) ([]api.Player, int, error) {
		resp, list, err := client.SearchPlayers(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return list, resp.Status, nil
	}
	teams := func(ctx context.Context, q string) ([]api.Team, int, error) {
		resp, list, err := client.SearchTeams(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return list, resp.Status, nil
	}

	addPlayerBox := func(name string, preset *api.Player, clearOnSelect bool, commit func(*DashboardState, api.Player) error) {
		box := search.NewBox(search.Config[api.Player]{
			Name:             name,
			Lookup:           players,
			Label:            func(p api.Player) string { return p.Name },
			Delay:            a.searchDelay,
			Clock:            a.clock,
			Context:          ctx,
			RestoreOnDismiss: !clearOnSelect,
			ClearOnSelect:    clearOnSelect,
			OnChange: func(st search.State[api.Player]) {
				c.sendState(st.Name, st.Seq, st.Query, st.Open, st.Loading, mapItems(st.Results, playerItem))
			},
			OnSelect: func(p api.Player) { c.commit(name, p.Name, func(d *DashboardState) error { return commit(d, p) }) },
		})
		if preset != nil {
			box.Preset(*preset)
		}
		c.boxes[name] = typedBox[api.Player]{box, playerItem}
	}
	addTeamBox := func(name string, preset *api.Team, commit func(*DashboardState, api.Team)) {
		box := search.NewBox(search.Config[api.Team]{
			Name:             name,
			Lookup:           teams,
			Label:            func(t api.Team) string { return t.FullName },
			Delay:            a.searchDelay,
			Clock:            a.clock,
			Context:          ctx,
			RestoreOnDismiss: true,
			OnChange: func(st search.State[api.Team]) {
				c.sendState(st.Name, st.Seq, st.Query, st.Open, st.Loading, mapItems(st.Results, teamItem))
			},
			OnSelect: func(t api.Team) {
				c.commit(name, t.FullName, func(d *DashboardState) error { commit(d, t); return nil })
			},
		})
		if preset != nil {
			box.Preset(*preset)
		}
		c.boxes[name] = typedBox[api.Team]{box, teamItem}
	}

	setupTeam := dash.SetupTeam
	if setupTeam == nil && user != nil && user.FavouriteTeamID != 0 {
		setupTeam = &api.Team{ID: user.FavouriteTeamID, FullName: user.FavouriteTeamName}
	}
	setupPlayer := dash.SetupPlayer
	if setupPlayer == nil && user != nil && user.FavouritePlayerID != 0 {
		setupPlayer = &api.Player{PlayerID: user.FavouritePlayerID, Name: user.FavouritePlayerName}
	}

	addTeamBox(BoxSetupTeam, setupTeam, func(d *DashboardState, t api.Team) { d.SetupTeam = &t })
	addPlayerBox(BoxSetupPlayer, setupPlayer, false, func(d *DashboardState, p api.Player) error { d.SetupPlayer = &p; return nil })
	addPlayerBox(BoxPlayerA, dash.PlayerA, false, func(d *DashboardState, p api.Player) error { d.PlayerA = &p; return nil })
	addPlayerBox(BoxPlayerB, dash.PlayerB, false, func(d *DashboardState, p api.Player) error { d.PlayerB = &p; return nil })
	addTeamBox(BoxTeamA, dash.TeamA, func(d *DashboardState, t api.Team) { d.TeamA = &t })
	addTeamBox(BoxTeamB, dash.TeamB, func(d *DashboardState, t api.Team) { d.TeamB = &t })
	addPlayerBox(BoxClutch, nil, true, addClutchPlayer)
	return c
}

func mapItems[T any](in []T, f func(T) SearchItem) []SearchItem {
	out := make([]SearchItem, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// addClutchPlayer appends p to the clutch comparison.
func addClutchPlayer(d *DashboardState, p api.Player) error {
	if slices.ContainsFunc(d.Clutch, func(q api.Player) bool { return q.PlayerID == p.PlayerID }) {
		return fmt.Errorf("%s is already on the chart", p.Name)
	}
	if len(d.Clutch) >= MaxClutchPlayers {
		return fmt.Errorf("at most %d players can be compared", MaxClutchPlayers)
	}
	d.Clutch = append(d.Clutch, p)
	return nil
}

func (c *wsClient) sendState(box string, seq uint64, query string, open, loading bool, items []SearchItem) {
	c.sendJSON(Message{Type: MsgTypeState, Box: box, Seq: seq, Query: query, Open: open, Loading: loading, Items: items})
}

// commit persists a selection into the dashboard state.
func (c *wsClient) commit(box, label string, apply func(*DashboardState) error) {
	var applyErr error
	err := c.browser.UpdateDashboard(func(d *DashboardState) {
		applyErr = apply(d)
	})
	switch {
	case err != nil:
		log.Printf("[WS] Saving selection of %s: %v", box, err)
		c.sendJSON(Message{Type: MsgTypeError, Box: box, Error: "Could not save the selection"})
	case applyErr != nil:
		c.sendJSON(Message{Type: MsgTypeError, Box: box, Error: applyErr.Error()})
	default:
		c.sendJSON(Message{Type: MsgTypeSelected, Box: box, Label: label, Reload: true})
	}
}

// applyDateFilter stores a date:YYYY-MM-DD..YYYY-MM-DD filter typed into a
// player box as the range of the page the box belongs to.
func (c *wsClient) applyDateFilter(box string, filters []search.Filter) {
	r, ok := dateRangeFilter(filters)
	if !ok {
		return
	}
	err := c.browser.UpdateDashboard(func(d *DashboardState) {
		switch box {
		case BoxPlayerA, BoxPlayerB:
			d.PlayerRange = r
		case BoxClutch:
			d.ClutchRange = r
		}
	})
	if err != nil {
		log.Printf("[WS] Saving date range of %s: %v", box, err)
	}
}

func dateRangeFilter(filters []search.Filter) (api.StatRange, bool) {
	for _, f := range filters {
		if f.Key != "date" || f.Operator != search.OpRange {
			continue
		}
		r := api.StatRange{StartDate: f.Value, EndDate: f.MaxValue}
		if r.Validate() == nil {
			return r, true
		}
	}
	return api.StatRange{}, false
}

// readPump pumps messages from the websocket connection to the boxes.
func (c *wsClient) readPump() {
	defer func() {
		for _, b := range c.boxes {
			b.Close()
		}
		c.cancel()
		close(c.done)
		c.conn.Close()
		c.app.metrics.ActiveWS.Add(-1)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] error: %v", err)
			}
			break
		}
		c.handle(msg)
	}
}

func (c *wsClient) handle(msg Message) {
	if msg.Type == MsgTypePing {
		c.sendJSON(Message{Type: MsgTypePong})
		return
	}
	box, ok := c.boxes[msg.Box]
	if !ok {
		c.sendJSON(Message{Type: MsgTypeError, Box: msg.Box, Error: "Unknown search box"})
		return
	}
	switch msg.Type {
	case MsgTypeInput:
		box.Input(msg.Query)
	case MsgTypeFocus:
		box.Focus()
	case MsgTypeDismiss:
		box.Dismiss()
	case MsgTypeSelect:
		if err := box.check(msg.Index, msg.ID); err != nil {
			c.selectFailed(msg.Box, err)
			return
		}
		// The range is saved first; selecting reloads the page.
		c.applyDateFilter(msg.Box, box.Filters())
		if err := box.pick(msg.Index, msg.ID); err != nil {
			c.selectFailed(msg.Box, err)
		}
	default:
		log.Printf("[WS] Unknown message type: %s", msg.Type)
		c.sendJSON(Message{Type: MsgTypeError, Error: "Unknown message type"})
	}
}

func (c *wsClient) selectFailed(box string, err error) {
	c.app.debugf("[WS] %v", err)
	text := "Invalid selection"
	if errors.Is(err, search.ErrResultsChanged) {
		text = "Results changed, try again"
	}
	c.sendJSON(Message{Type: MsgTypeError, Box: box, Error: text})
}

// writePump pumps messages from the boxes to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		log.Printf("[WS] Send buffer full, dropping %s for %s", msg.Type, msg.Box)
	}
}

// serveSearchWS handles websocket requests from the dashboard pages.
func (a *app) serveSearchWS(w http.ResponseWriter, r *http.Request) {
	b := browserFrom(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	a.metrics.ActiveWS.Add(1)
	client := a.newWSClient(conn, b, getUser(r))
	go client.writePump()
	go client.readPump()
}
