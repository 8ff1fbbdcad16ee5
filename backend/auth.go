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
	"strings"

	"github.com/ttbt-io/hoopdash/backend/api"
)

type contextKey int

const (
	// browserKey holds the *BrowserSession of the request.
	browserKey contextKey = iota
	// userKey holds the *api.User confirmed by requireSession.
	userKey
)

// getUser returns the signed-in user, or nil outside guarded routes.
func getUser(r *http.Request) *api.User {
	if val := r.Context().Value(userKey); val != nil {
		if u, ok := val.(*api.User); ok {
			return u
		}
	}
	return nil
}

// maskEmail obscures an email address for safe logging.
// e.g. "user@example.com" -> "u***@example.com"
func maskEmail(email string) string {
	if email == "" {
		return "<empty>"
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || len(parts[0]) < 1 {
		return "****"
	}
	return string(parts[0][0]) + "***@" + parts[1]
}

// maskToken keeps only the tail of a token for logs.
func maskToken(tok string) string {
	if len(tok) <= 6 {
		return "****"
	}
	return "…" + tok[len(tok)-6:]
}
