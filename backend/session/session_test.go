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

package session

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

func hsToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func TestCheck(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		token     string
		want      Status
		wantClear bool
		wantSub   string
	}{
		{"missing", "", Missing, false, ""},
		{"garbage", "not-a-jwt", Invalid, true, ""},
		{"bad payload", "aaa.bbb.ccc", Invalid, true, ""},
		{"expired", hsToken(t, jwt.MapClaims{"sub": "mj23", "exp": now.Add(-time.Second).Unix()}), Expired, true, "mj23"},
		{"valid", hsToken(t, jwt.MapClaims{"sub": "mj23", "exp": now.Add(time.Hour).Unix()}), OK, false, "mj23"},
		{"no exp", hsToken(t, jwt.MapClaims{"sub": "kb24"}), OK, false, "kb24"},
		{"bad exp type", hsToken(t, jwt.MapClaims{"sub": "x", "exp": "tomorrow"}), Invalid, true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemory(tc.token)
			res := Check(store, now)
			if res.Status != tc.want {
				t.Fatalf("Status = %v, want %v (err %v)", res.Status, tc.want, res.Err)
			}
			_, has := store.Get()
			if tc.wantClear && has {
				t.Error("token not cleared")
			}
			if !tc.wantClear && tc.token != "" && !has {
				t.Error("token cleared")
			}
			if res.Claims.Subject != tc.wantSub {
				t.Errorf("Subject = %q, want %q", res.Claims.Subject, tc.wantSub)
			}
		})
	}
}

func TestCheckMissingError(t *testing.T) {
	res := Check(NewMemory(""), time.Now())
	if !errors.Is(res.Err, ErrNoToken) {
		t.Errorf("Err = %v, want ErrNoToken", res.Err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory("")
	if _, ok := m.Get(); ok {
		t.Fatal("empty store reports a token")
	}
	m.Set("abc")
	if tok, ok := m.Get(); !ok || tok != "abc" {
		t.Fatalf("Get() = %q, %v", tok, ok)
	}
	m.Clear()
	if _, ok := m.Get(); ok {
		t.Fatal("token survived Clear")
	}
}

func TestVerifier(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub, err := jwk.Import(priv.Public())
	if err != nil {
		t.Fatalf("jwk.Import: %v", err)
	}
	if err := pub.Set(jwk.KeyIDKey, "k1"); err != nil {
		t.Fatalf("Set kid: %v", err)
	}
	set := jwk.NewSet()
	set.AddKey(pub)

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		json.NewEncoder(w).Encode(set)
	}))
	defer srv.Close()

	sign := func(kid string, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"sub": "u", "exp": exp.Unix()})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(priv)
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}

	v := NewVerifier(srv.URL)
	if fetches.Load() != 1 {
		t.Fatalf("fetches = %d, want 1", fetches.Load())
	}
	now := time.Now()

	if err := v.Verify(sign("k1", now.Add(time.Hour))); err != nil {
		t.Errorf("Verify(valid) = %v", err)
	}
	if err := v.Verify(sign("k2", now.Add(time.Hour))); err == nil {
		t.Error("Verify(unknown kid) succeeded")
	}
	if fetches.Load() != 1 {
		t.Errorf("refetched within a minute: fetches = %d", fetches.Load())
	}
	if err := v.Verify(hsToken(t, jwt.MapClaims{"sub": "u"})); err == nil {
		t.Error("Verify(HS256) succeeded")
	}

	store := NewMemory(sign("k1", now.Add(time.Hour)))
	if res := CheckVerified(store, v, now); res.Status != OK {
		t.Errorf("CheckVerified = %v (%v)", res.Status, res.Err)
	}
	store = NewMemory(hsToken(t, jwt.MapClaims{"sub": "u"}))
	if res := CheckVerified(store, v, now); res.Status != Invalid {
		t.Errorf("CheckVerified(HS256) = %v", res.Status)
	}
	if _, ok := store.Get(); ok {
		t.Error("unverifiable token kept")
	}
}
