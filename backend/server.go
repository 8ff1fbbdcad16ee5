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
	"crypto/tls"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/cache"
	"github.com/ttbt-io/hoopdash/backend/debounce"
	"github.com/ttbt-io/hoopdash/backend/search"
	"github.com/ttbt-io/hoopdash/backend/session"
)

//go:embed static
var staticFiles embed.FS

// Options represent server options.
type Options struct {
	Addr     string
	Cert     *tls.Certificate
	DataDir  string
	Debug    bool
	Storage  *storage.Storage
	Listener net.Listener

	// Stats API
	APIURL     string
	HTTPClient *http.Client
	Cache      cache.Cache

	// Session Options
	Sessions    *SessionManager
	CookieName  string
	CookieKey   []byte
	AuthJWKSURL string

	CORSOrigins []string

	// Clock and SearchDelay drive the search debounce. Tests inject a
	// debounce.FakeClock.
	Clock       debounce.Clock
	SearchDelay time.Duration
	Now         func() time.Time
}

// app holds what the handlers share.
type app struct {
	api         *api.Client
	sessions    *SessionManager
	verifier    *session.Verifier
	metrics     *Metrics
	pages       *pageSet
	clock       debounce.Clock
	searchDelay time.Duration
	now         func() time.Time
	debugf      func(string, ...any)
}

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// StartServer starts the web server and registers the handlers.
func StartServer(opts Options) (*Server, error) {
	handler, err := NewServerHandler(opts)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}

	go func() {
		var err error
		if opts.Listener != nil {
			if httpServer.TLSConfig != nil {
				log.Printf("Starting HTTPS server on provided listener %s...", opts.Listener.Addr())
				err = httpServer.ServeTLS(opts.Listener, "", "")
			} else {
				log.Printf("Starting HTTP server on provided listener %s...", opts.Listener.Addr())
				err = httpServer.Serve(opts.Listener)
			}
		} else {
			log.Printf("Server starting on port %s...\n", opts.Addr)
			if opts.Cert != nil {
				err = httpServer.ListenAndServeTLS("", "")
			} else {
				err = httpServer.ListenAndServe()
			}
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return &Server{httpServer: httpServer}, nil
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) (http.Handler, error) {
	if opts.APIURL == "" {
		return nil, errors.New("no stats API URL configured")
	}
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clock == nil {
		opts.Clock = debounce.RealClock{}
	}
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = search.DefaultDelay
	}

	sessions := opts.Sessions
	if sessions == nil {
		if len(opts.CookieKey) == 0 {
			return nil, errors.New("no cookie key configured")
		}
		sessions = NewSessionManager(opts.DataDir, opts.Storage, opts.CookieName, opts.CookieKey)
		if n, err := sessions.PurgeIdle(SessionMaxIdle); err != nil {
			log.Printf("[SESSION] Warning: purging idle sessions: %v", err)
		} else if n > 0 {
			log.Printf("[SESSION] Purged %d idle sessions", n)
		}
	}

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	client := api.New(opts.APIURL)
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	}
	client.Cache = opts.Cache
	client.Observe = metrics.Observe

	a := &app{
		api:         client,
		sessions:    sessions,
		metrics:     metrics,
		pages:       pages,
		clock:       opts.Clock,
		searchDelay: opts.SearchDelay,
		now:         opts.Now,
		debugf:      func(string, ...any) {},
	}
	if opts.Debug {
		a.debugf = func(f string, args ...any) {
			log.Printf("[DEBUG BACKEND] "+f, args...)
		}
	}
	if opts.AuthJWKSURL != "" {
		a.verifier = session.NewVerifier(opts.AuthJWKSURL)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(opts.Debug))
	r.Use(middleware.Recoverer)
	r.Use(securityMiddleware)
	r.Use(cacheControlMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Method(http.MethodGet, "/metrics", metrics)
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	r.Group(func(r chi.Router) {
		r.Use(sessions.Attach)

		r.With(a.redirectIfSignedIn).Get("/", a.handleLoginPage)
		r.Post("/login", a.handleLogin)
		r.With(a.redirectIfSignedIn).Get("/register", a.handleRegisterPage)
		r.Post("/register", a.handleRegister)
		r.Post("/logout", a.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(a.requireSession)
			r.Get("/ws/search", a.serveSearchWS)
			r.Get("/setup", a.handleSetupPage)
			r.Post("/setup", a.handleSetup)
			r.Get("/home", a.handleHome)
			r.Get("/profile", a.handleProfilePage)
			r.Post("/profile", a.handleProfile)
			r.Get("/graphs/player-stats", a.handlePlayerStats)
			r.Post("/graphs/player-stats", a.handlePlayerStatsForm)
			r.Get("/graphs/team-stats", a.handleTeamStats)
			r.Post("/graphs/team-stats", a.handleTeamStatsForm)
			r.Get("/graphs/clutch-factor", a.handleClutchFactor)
			r.Post("/graphs/clutch-factor", a.handleClutchFactorForm)
			r.Post("/graphs/clutch-factor/remove", a.handleClutchRemove)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.renderError(w, http.StatusNotFound, "Page not found.")
	})

	return r, nil
}

// cacheControlMiddleware keeps pages and JSON out of shared caches. Static
// assets may be cached briefly.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			w.Header().Set("Cache-Control", "public, max-age=300, proxy-revalidate, no-transform")
		} else {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		}
		next.ServeHTTP(w, r)
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Player headshots and team logos come from the stats CDN.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request with its status and duration. Static
// assets and health checks are only logged in debug mode.
func loggingMiddleware(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			if !debug && (strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/health") {
				return
			}
			log.Printf("[HTTP] %s %s %d %s reqid=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
		})
	}
}
