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

// Package session holds the bearer token of a signed-in browser and decides
// whether it is still usable.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when an operation needs a token and none is stored.
var ErrNoToken = errors.New("session: no token")

// Store is the token storage capability handed to code that needs the
// current token.
type Store interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// Memory is a Store kept in process memory.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns a Memory holding token, which may be empty.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Status is the outcome of Check.
type Status int

const (
	OK Status = iota
	Missing
	Invalid
	Expired
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Claims are the token fields hoopdash looks at.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token has no exp
}

// Result is returned by Check.
type Result struct {
	Status Status
	Claims Claims
	Err    error
}

// Check inspects the stored token without verifying its signature. Tokens
// that cannot be decoded or have expired are removed from the store.
func Check(store Store, now time.Time) Result {
	tok, ok := store.Get()
	if !ok || tok == "" {
		return Result{Status: Missing, Err: ErrNoToken}
	}
	claims, err := Decode(tok)
	if err != nil {
		drop(store)
		return Result{Status: Invalid, Err: err}
	}
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(now) {
		drop(store)
		return Result{Status: Expired, Claims: claims, Err: fmt.Errorf("session: token expired at %s", claims.ExpiresAt.Format(time.RFC3339))}
	}
	return Result{Status: OK, Claims: claims}
}

// Decode reads the claims of a JWT without checking the signature.
func Decode(tok string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, fmt.Errorf("session: decoding token: %w", err)
	}
	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("session: bad exp claim: %w", err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func drop(store Store) {
	if err := store.Clear(); err != nil {
		log.Printf("[AUTH] clearing token: %v", err)
	}
}
