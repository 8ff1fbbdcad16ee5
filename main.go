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

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ttbt-io/hoopdash/backend"
	"github.com/ttbt-io/hoopdash/backend/cache"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	addr        = flag.String("addr", ":8080", "The TCP address to listen to")
	apiURL      = flag.String("api-url", "http://localhost:8000", "Base URL of the stats API")
	debugMode   = flag.Bool("debug", false, "Enable debug mode")
	dataDir     = flag.String("data-dir", "data", "Directory for session data")
	tlsCert     = flag.String("tls-cert", "", "Path to main HTTP TLS certificate")
	tlsKey      = flag.String("tls-key", "", "Path to main HTTP TLS key")
	cookieName  = flag.String("cookie-name", "hoopdash_session", "Name of the session cookie")
	authJWKSURL = flag.String("auth-jwks-url", "", "JWKS endpoint used to verify stats API tokens")
	redisURL    = flag.String("redis-url", "", "Redis URL for the response cache. An in-memory cache is used when empty")
	cacheTTL    = flag.Duration("cache-ttl", 60*time.Second, "How long search and image responses are cached")
	corsOrigins = flag.String("cors-origins", "", "Comma-separated origins allowed to read /api/metrics")
	searchDelay = flag.Duration("search-delay", 300*time.Millisecond, "Debounce delay of the search boxes")
	logFile     = flag.String("log-file", "", "Write logs to this file, rotated, instead of stderr")
)

// main starts the web server and registers the handlers.
func main() {
	flag.Parse()

	if *logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		defer rotator.Close()
		var out io.Writer = rotator
		if *debugMode {
			out = io.MultiWriter(os.Stderr, rotator)
		}
		log.SetOutput(out)
	}

	var mainTLSCert *tls.Certificate
	if *tlsCert != "" && *tlsKey != "" {
		cert, err := tls.LoadX509KeyPair(*tlsCert, *tlsKey)
		if err != nil {
			log.Fatalf("Failed to load main TLS cert/key: %v", err)
		}
		mainTLSCert = &cert
	}

	store, err := backend.OpenStorage(*dataDir, os.Getenv(backend.MasterKeyEnv))
	if err != nil {
		log.Fatalf("Critical Security Error: %v", err)
	}

	cookieKey := []byte(os.Getenv("HD_COOKIE_KEY"))
	if len(cookieKey) == 0 {
		if cookieKey, err = backend.LoadCookieKey(store); err != nil {
			log.Fatalf("Failed to load cookie key: %v", err)
		}
	}

	var respCache cache.Cache
	if *redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, *redisURL, *cacheTTL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rc.Close()
		respCache = rc
		log.Printf("Caching responses in redis for %s", *cacheTTL)
	} else {
		respCache = cache.NewLRU(1024, *cacheTTL)
	}

	var origins []string
	for _, o := range strings.Split(*corsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	server, err := backend.StartServer(backend.Options{
		Addr:        *addr,
		Cert:        mainTLSCert,
		DataDir:     *dataDir,
		Debug:       *debugMode,
		Storage:     store,
		APIURL:      *apiURL,
		Cache:       respCache,
		CookieName:  *cookieName,
		CookieKey:   cookieKey,
		AuthJWKSURL: *authJWKSURL,
		CORSOrigins: origins,
		SearchDelay: *searchDelay,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}
