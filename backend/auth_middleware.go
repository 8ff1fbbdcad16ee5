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
	"log"
	"net/http"

	"github.com/ttbt-io/hoopdash/backend/session"
)

// requireSession guards a route. The stored token is checked locally on
// every request, then confirmed with /users/info. Nothing from next is
// written unless both pass.
func (a *app) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r)
		if b == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		res := session.CheckVerified(b, a.verifier, a.now())
		if res.Status != session.OK {
			a.debugf("[AUTH] %s %s: session %s (%v)", r.Method, r.URL.Path, res.Status, res.Err)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		resp, user, err := a.api.WithTokens(b).UserInfo(r.Context())
		if err != nil {
			// The token may still be good; keep it.
			log.Printf("[AUTH] Fetching user info: %v", err)
			a.renderError(w, http.StatusBadGateway, "The stats service is unreachable. Please try again later.")
			return
		}
		if resp.Status != http.StatusOK {
			tok, _ := b.Get()
			log.Printf("[AUTH] /users/info returned %d for token %s, signing out", resp.Status, maskToken(tok))
			if err := b.Clear(); err != nil {
				log.Printf("[AUTH] Clearing token: %v", err)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		a.debugf("[AUTH] %s %s as %s", r.Method, r.URL.Path, maskEmail(user.Email))
		ctx := context.WithValue(r.Context(), userKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectIfSignedIn sends browsers that already hold a token to /home.
func (a *app) redirectIfSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b := browserFrom(r); b != nil && r.Method == http.MethodGet {
			if tok, ok := b.Get(); ok && tok != "" {
				http.Redirect(w, r, "/home", http.StatusSeeOther)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
