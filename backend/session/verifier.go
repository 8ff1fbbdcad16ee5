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
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Verifier checks token signatures against the stats API's published JWKS.
// It is only used when the API publishes one.
type Verifier struct {
	url     string
	timeout time.Duration
	// minRefresh is the minimum time between two fetches of the key set.
	minRefresh time.Duration

	mu          sync.RWMutex
	keys        jwk.Set
	lastRefresh time.Time
}

// NewVerifier creates a Verifier for the JWKS at url. The first fetch is
// attempted right away; failure is not fatal.
func NewVerifier(url string) *Verifier {
	v := &Verifier{url: url, timeout: 10 * time.Second, minRefresh: time.Minute}
	if err := v.refresh(); err != nil {
		log.Printf("[AUTH] Warning: Failed to fetch JWKS on startup: %v", err)
	}
	return v
}

func (v *Verifier) refresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	set, err := jwk.Fetch(ctx, v.url)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastRefresh = time.Now()
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	v.keys = set
	return nil
}

func (v *Verifier) lookup(kid string) (any, error) {
	v.mu.RLock()
	set := v.keys
	v.mu.RUnlock()
	if set == nil {
		return nil, fmt.Errorf("JWKS not initialized")
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to materialize key: %w", err)
	}
	return raw, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing 'kid' header")
	}

	key, err := v.lookup(kid)
	if err == nil {
		return key, nil
	}
	v.mu.RLock()
	stale := time.Since(v.lastRefresh) > v.minRefresh
	v.mu.RUnlock()
	if !stale {
		return nil, err
	}
	if err := v.refresh(); err != nil {
		log.Printf("[AUTH] Error refreshing JWKS: %v", err)
		return nil, err
	}
	return v.lookup(kid)
}

// Verify checks the signature and the time-based claims of tok.
func (v *Verifier) Verify(tok string) error {
	if _, err := jwt.Parse(tok, v.keyFunc); err != nil {
		return fmt.Errorf("session: verifying token: %w", err)
	}
	return nil
}

// CheckVerified is Check followed by signature verification. A token that
// fails verification is cleared and reported Invalid.
func CheckVerified(store Store, v *Verifier, now time.Time) Result {
	res := Check(store, now)
	if res.Status != OK || v == nil {
		return res
	}
	tok, _ := store.Get()
	if err := v.Verify(tok); err != nil {
		drop(store)
		return Result{Status: Invalid, Claims: res.Claims, Err: err}
	}
	return res
}
