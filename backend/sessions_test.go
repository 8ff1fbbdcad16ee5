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
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/google/uuid"
	"github.com/ttbt-io/hoopdash/backend/api"
)

func newTestSessions(t *testing.T) *SessionManager {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "sessions_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	return NewSessionManager(tempDir, storage.New(tempDir, nil), "", []byte("0123456789abcdef0123456789abcdef"))
}

func TestSessionManager(t *testing.T) {
	sm := newTestSessions(t)
	id := uuid.NewString()

	t.Run("LoadMissing", func(t *testing.T) {
		rec, err := sm.Load(id)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if rec.ID != id || rec.Token != "" {
			t.Errorf("Expected an empty record, got %+v", rec)
		}
	})

	t.Run("InvalidID", func(t *testing.T) {
		if _, err := sm.Load("../../etc/passwd"); err == nil {
			t.Error("Expected an error for a non-uuid id")
		}
	})

	t.Run("UpdateAndLoad", func(t *testing.T) {
		err := sm.Update(id, func(rec *SessionRecord) {
			rec.Token = "tok"
			rec.Dashboard.PlayerA = &api.Player{PlayerID: 2544, Name: "LeBron James"}
			rec.Dashboard.Metrics = []string{}
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if _, err := os.Stat(filepath.Join(sm.DataDir, "sessions", id+".json")); err != nil {
			t.Errorf("Session file not created: %v", err)
		}
		rec, err := sm.Load(id)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if rec.Token != "tok" || rec.Dashboard.PlayerA == nil || rec.Dashboard.PlayerA.Name != "LeBron James" {
			t.Errorf("Unexpected record %+v", rec)
		}
		if rec.Dashboard.Metrics == nil {
			t.Error("An empty metric selection must survive a round trip")
		}
		if rec.UpdatedAt == 0 {
			t.Error("UpdatedAt not set")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := sm.Delete(id); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := sm.Delete(id); err != nil {
			t.Errorf("Deleting twice should not fail: %v", err)
		}
		rec, _ := sm.Load(id)
		if rec.Token != "" {
			t.Error("Record still present after Delete")
		}
	})
}

func TestSessionManager_PurgeIdle(t *testing.T) {
	sm := newTestSessions(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old, fresh := uuid.NewString(), uuid.NewString()
	sm.Now = func() time.Time { return now.Add(-8 * 24 * time.Hour) }
	sm.Update(old, func(rec *SessionRecord) { rec.Token = "old" })
	sm.Now = func() time.Time { return now.Add(-time.Hour) }
	sm.Update(fresh, func(rec *SessionRecord) { rec.Token = "fresh" })

	sm.Now = func() time.Time { return now }
	n, err := sm.PurgeIdle(SessionMaxIdle)
	if err != nil {
		t.Fatalf("PurgeIdle: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 purged record, got %d", n)
	}
	var ids []string
	for rec, err := range sm.ListAll() {
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if len(ids) != 1 || ids[0] != fresh {
		t.Errorf("Remaining records = %v", ids)
	}
}

func TestBrowserSession(t *testing.T) {
	sm := newTestSessions(t)

	rec := httptest.NewRecorder()
	b := sm.Browser(rec, httptest.NewRequest("GET", "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "hoopdash_session" || !cookies[0].HttpOnly {
		t.Fatalf("Unexpected cookies %+v", cookies)
	}

	if _, ok := b.Get(); ok {
		t.Error("New session should have no token")
	}
	if err := b.Set("abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.UpdateDashboard(func(d *DashboardState) { d.NumGames = 15 }); err != nil {
		t.Fatalf("UpdateDashboard: %v", err)
	}

	// The same cookie maps to the same record.
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	again := sm.Browser(httptest.NewRecorder(), req)
	if again.ID != b.ID {
		t.Fatalf("Expected session %s, got %s", b.ID, again.ID)
	}
	if tok, ok := again.Get(); !ok || tok != "abc" {
		t.Errorf("Get = %q, %v", tok, ok)
	}

	if err := again.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := again.Get(); ok {
		t.Error("Token should be gone")
	}
	if got := again.Dashboard().NumGames; got != 15 {
		t.Errorf("Clear must keep the dashboard, NumGames = %d", got)
	}

	// A forged cookie starts a new session.
	forged := httptest.NewRequest("GET", "/", nil)
	forged.AddCookie(&http.Cookie{Name: "hoopdash_session", Value: "forged"})
	if other := sm.Browser(httptest.NewRecorder(), forged); other.ID == b.ID {
		t.Error("Forged cookie reused the session")
	}
}
