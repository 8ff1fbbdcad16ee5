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
	"fmt"
	"iter"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/ttbt-io/hoopdash/backend/api"
)

// SessionMaxIdle is how long an unused session record is kept.
const SessionMaxIdle = 7 * 24 * time.Hour

const sessionsDir = "sessions"

// DashboardState holds the selections a browser made on the dashboard pages.
type DashboardState struct {
	SetupTeam   *api.Team   `json:"setupTeam,omitempty"`
	SetupPlayer *api.Player `json:"setupPlayer,omitempty"`

	PlayerA     *api.Player   `json:"playerA,omitempty"`
	PlayerB     *api.Player   `json:"playerB,omitempty"`
	PlayerRange api.StatRange `json:"playerRange"`
	// Metrics are the mirror chart rows switched on. Nil means all.
	Metrics []string `json:"metrics"`

	TeamA    *api.Team `json:"teamA,omitempty"`
	TeamB    *api.Team `json:"teamB,omitempty"`
	NumGames int       `json:"numGames,omitempty"`
	GamePart string    `json:"gamePart,omitempty"`
	ShowSum  bool      `json:"showSum,omitempty"`

	Clutch      []api.Player  `json:"clutch,omitempty"`
	ClutchRange api.StatRange `json:"clutchRange"`
}

// ResetSelections drops the players and teams picked by the signed-in user.
// View settings such as ranges and game counts stay with the browser.
func (d *DashboardState) ResetSelections() {
	d.SetupTeam, d.SetupPlayer = nil, nil
	d.PlayerA, d.PlayerB = nil, nil
	d.TeamA, d.TeamB = nil, nil
	d.Clutch = nil
}

// SessionRecord is the persisted state of one browser.
type SessionRecord struct {
	ID        string         `json:"id"`
	Token     string         `json:"token,omitempty"`
	Dashboard DashboardState `json:"dashboard"`
	UpdatedAt int64          `json:"updatedAt"`
}

// SessionManager maps browser cookies to persisted session records.
type SessionManager struct {
	DataDir    string
	CookieName string
	Now        func() time.Time

	storage *storage.Storage
	cookies *sessions.CookieStore
	mu      sync.Map // Stores *sync.Mutex for each session id
}

// NewSessionManager creates a SessionManager. key authenticates the cookie.
func NewSessionManager(dataDir string, s *storage.Storage, cookieName string, key []byte) *SessionManager {
	if cookieName == "" {
		cookieName = "hoopdash_session"
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(SessionMaxIdle.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		DataDir:    dataDir,
		CookieName: cookieName,
		Now:        time.Now,
		storage:    s,
		cookies:    cs,
	}
}

func (sm *SessionManager) lock(id string) func() {
	m, _ := sm.mu.LoadOrStore(id, &sync.Mutex{})
	mutex := m.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

func sessionFile(id string) string {
	return filepath.Join(sessionsDir, id+".json")
}

// Load reads a record. A record that does not exist yet is returned empty.
func (sm *SessionManager) Load(id string) (*SessionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id %q", id)
	}
	var rec SessionRecord
	if err := sm.storage.ReadDataFile(sessionFile(id), &rec); err != nil {
		if os.IsNotExist(err) {
			return &SessionRecord{ID: id}, nil
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &rec, nil
}

// Update applies fn to the record under the session's lock and saves it.
func (sm *SessionManager) Update(id string, fn func(*SessionRecord)) error {
	unlock := sm.lock(id)
	defer unlock()

	rec, err := sm.Load(id)
	if err != nil {
		return err
	}
	fn(rec)
	rec.ID = id
	rec.UpdatedAt = sm.Now().Unix()
	if err := sm.storage.SaveDataFile(sessionFile(id), rec); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}

// Delete removes the record file.
func (sm *SessionManager) Delete(id string) error {
	unlock := sm.lock(id)
	defer unlock()

	if err := os.Remove(filepath.Join(sm.DataDir, sessionFile(id))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete session file: %w", err)
	}
	sm.mu.Delete(id)
	return nil
}

// ListAll returns an iterator over every stored record.
func (sm *SessionManager) ListAll() iter.Seq2[*SessionRecord, error] {
	return func(yield func(*SessionRecord, error) bool) {
		files, err := os.ReadDir(filepath.Join(sm.DataDir, sessionsDir))
		if err != nil {
			if !os.IsNotExist(err) {
				yield(nil, fmt.Errorf("could not read sessions directory: %w", err))
			}
			return
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			rec, err := sm.Load(strings.TrimSuffix(file.Name(), ".json"))
			if err != nil {
				log.Printf("[SESSION] Warning: could not load %s: %v", file.Name(), err)
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// PurgeIdle deletes records that have not been updated for maxIdle and
// returns how many were removed.
func (sm *SessionManager) PurgeIdle(maxIdle time.Duration) (int, error) {
	cutoff := sm.Now().Add(-maxIdle).Unix()
	n := 0
	for rec, err := range sm.ListAll() {
		if err != nil {
			return n, err
		}
		if rec.UpdatedAt >= cutoff {
			continue
		}
		if err := sm.Delete(rec.ID); err != nil {
			log.Printf("[SESSION] purge %s: %v", rec.ID, err)
			continue
		}
		n++
	}
	return n, nil
}

// Browser returns the session of the request's browser, issuing a new
// session cookie when the request carries none.
func (sm *SessionManager) Browser(w http.ResponseWriter, r *http.Request) *BrowserSession {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := sm.cookies.Get(r, sm.CookieName)
	id, _ := sess.Values["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		sess.Values["id"] = id
		if err := sess.Save(r, w); err != nil {
			log.Printf("[SESSION] saving cookie: %v", err)
		}
	}
	return &BrowserSession{m: sm, ID: id}
}

// Attach makes the browser session available to handlers through
// browserFrom.
func (sm *SessionManager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := sm.Browser(w, r)
		ctx := context.WithValue(r.Context(), browserKey, b)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BrowserSession is the session of one browser. It implements session.Store
// and api.TokenSource.
type BrowserSession struct {
	m  *SessionManager
	ID string
}

func (b *BrowserSession) Get() (string, bool) {
	rec, err := b.m.Load(b.ID)
	if err != nil {
		log.Printf("[SESSION] load %s: %v", b.ID, err)
		return "", false
	}
	return rec.Token, rec.Token != ""
}

func (b *BrowserSession) Set(token string) error {
	return b.m.Update(b.ID, func(rec *SessionRecord) { rec.Token = token })
}

// Clear removes the token. Dashboard selections are kept.
func (b *BrowserSession) Clear() error {
	return b.m.Update(b.ID, func(rec *SessionRecord) { rec.Token = "" })
}

// Dashboard returns the current selections.
func (b *BrowserSession) Dashboard() DashboardState {
	rec, err := b.m.Load(b.ID)
	if err != nil {
		log.Printf("[SESSION] load %s: %v", b.ID, err)
		return DashboardState{}
	}
	return rec.Dashboard
}

// UpdateDashboard changes the selections.
func (b *BrowserSession) UpdateDashboard(fn func(*DashboardState)) error {
	return b.m.Update(b.ID, func(rec *SessionRecord) { fn(&rec.Dashboard) })
}

func browserFrom(r *http.Request) *BrowserSession {
	b, _ := r.Context().Value(browserKey).(*BrowserSession)
	return b
}
