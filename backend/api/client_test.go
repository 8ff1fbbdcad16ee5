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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ttbt-io/hoopdash/backend/cache"
)

type staticToken string

func (s staticToken) Get() (string, bool) { return string(s), s != "" }

func TestDoStatusHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantData bool
	}{
		{"ok", http.StatusOK, `{"a":1}`, true},
		{"no content ignores body", http.StatusNoContent, ``, false},
		{"not json", http.StatusOK, `<html>oops</html>`, false},
		{"empty body", http.StatusOK, ``, false},
		{"client error", http.StatusBadRequest, `{"detail":"nope"}`, true},
		{"server error", http.StatusInternalServerError, `Internal Server Error`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			resp, err := New(srv.URL).Do(context.Background(), http.MethodGet, "/x", nil, nil)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if resp.Status != tc.status {
				t.Errorf("Status = %d, want %d", resp.Status, tc.status)
			}
			if got := resp.Data != nil; got != tc.wantData {
				t.Errorf("has data = %v, want %v (%q)", got, tc.wantData, resp.Data)
			}
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDoNoContentWithBody(t *testing.T) {
	c := New("http://stats.invalid")
	c.HTTPClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"a":1}`)),
			Request:    r,
		}, nil
	})}
	resp, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusNoContent {
		t.Errorf("Status = %d, want 204", resp.Status)
	}
	if resp.Data != nil {
		t.Errorf("Data = %q, want nil", resp.Data)
	}
}

func TestDoHeadersAndBody(t *testing.T) {
	var gotAuth, gotCT, gotExtra string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotExtra = r.Header.Get("X-Trace")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL).WithTokens(staticToken("abc"))
	hdr := http.Header{}
	hdr.Set("X-Trace", "42")
	if _, err := c.Do(context.Background(), http.MethodPost, "/y", map[string]int{"n": 1}, &Options{Header: hdr}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q", gotCT)
	}
	if gotExtra != "42" {
		t.Errorf("X-Trace = %q", gotExtra)
	}
	if gotBody["n"] != float64(1) {
		t.Errorf("body = %v", gotBody)
	}

	// No token source, no header.
	if _, err := New(srv.URL).Do(context.Background(), http.MethodGet, "/y", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization without token = %q", gotAuth)
	}
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var observed int32 = -1
	c := New(url)
	c.Observe = func(endpoint string, status int, d time.Duration) {
		atomic.StoreInt32(&observed, int32(status))
	}
	resp, err := c.Do(context.Background(), http.MethodGet, "/users/info", nil, nil)
	if err == nil {
		t.Fatalf("Do succeeded: %+v", resp)
	}
	if atomic.LoadInt32(&observed) != 0 {
		t.Errorf("observed status = %d, want 0", observed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Do(ctx, http.MethodGet, "/users/info", nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSearchCache(t *testing.T) {
	var hits atomic.Int32
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode([]Team{{ID: 1, FullName: "Boston Celtics"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Cache = cache.NewLRU(16, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, teams, err := c.SearchTeams(ctx, "bos")
		if err != nil || !resp.OK() || len(teams) != 1 {
			t.Fatalf("SearchTeams: %v %+v %v", err, resp, teams)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}

	status = http.StatusUnauthorized
	for i := 0; i < 2; i++ {
		c.SearchTeams(ctx, "mia")
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3 (errors are not cached)", hits.Load())
	}
}

func TestEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /get_clutch_factor", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["player_id"] != float64(2544) || req["start_date"] != "2010-01-01" || req["end_date"] != "2012-12-31" {
			http.Error(w, `{"detail":"bad request"}`, http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"player":{"clutch_stats":{"average_points":30,"win_percentage":80,"field_goal_percentage":50}}}`)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Invalid credentials"}`)
	})
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":["Username already exists","Email already exists"]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	resp, clutch, err := c.ClutchFactor(ctx, 2544, StatRange{StartDate: "2010-01-01", EndDate: "2012-12-31"})
	if err != nil || resp.Status != http.StatusOK {
		t.Fatalf("ClutchFactor: %v %+v", err, resp)
	}
	if want := (ClutchSummary{AveragePoints: 30, WinPercentage: 80, FieldGoalPercentage: 50}); clutch != want {
		t.Errorf("clutch = %+v, want %+v", clutch, want)
	}

	resp, auth, err := c.Login(ctx, Credentials{Username: "x", Password: "y"})
	if err != nil || resp.Status != http.StatusUnauthorized || auth.Token != "" {
		t.Fatalf("Login: %v %+v %+v", err, resp, auth)
	}
	if got := resp.Detail(); !reflect.DeepEqual(got, []string{"Invalid credentials"}) {
		t.Errorf("Detail() = %q", got)
	}

	resp, _, _ = c.Register(ctx, Registration{})
	if got := resp.Detail(); len(got) != 2 || got[1] != "Email already exists" {
		t.Errorf("Detail() = %q", got)
	}
}

func TestModelHelpers(t *testing.T) {
	heights := map[string]string{
		"6-9":  `6'9" (206 cm)`,
		"7-0":  `7'0" (213 cm)`,
		"":     "N/A",
		"tall": "tall",
		"6-x":  "6-x",
	}
	for in, want := range heights {
		if got := ConvertHeight(in); got != want {
			t.Errorf("ConvertHeight(%q) = %q, want %q", in, got, want)
		}
	}

	dates := map[string]string{
		"1984-12-30":          "30.12.1984",
		"1984-12-30T00:00:00": "30.12.1984",
		"":                    "N/A",
		"unknown":             "unknown",
	}
	for in, want := range dates {
		if got := FormatBirthdate(in); got != want {
			t.Errorf("FormatBirthdate(%q) = %q, want %q", in, got, want)
		}
	}

	if got := FormLetters("wlW-L"); !reflect.DeepEqual(got, []string{"W", "L", "W", "L"}) {
		t.Errorf("FormLetters = %v", got)
	}
}

func TestStatRangeValidate(t *testing.T) {
	tests := []struct {
		r  StatRange
		ok bool
	}{
		{StatRange{"2006-01-01", "2022-12-31"}, true},
		{StatRange{"2005-12-31", "2010-01-01"}, false},
		{StatRange{"2010-01-01", "2023-01-01"}, false},
		{StatRange{"2012-01-01", "2010-01-01"}, false},
		{StatRange{"01.01.2010", "2012-01-01"}, false},
	}
	for _, tc := range tests {
		if err := tc.r.Validate(); (err == nil) != tc.ok {
			t.Errorf("Validate(%+v) = %v, want ok=%v", tc.r, err, tc.ok)
		}
	}
	if (StatRange{StartDate: "2010-01-01"}).Complete() {
		t.Error("half range reported complete")
	}
}
