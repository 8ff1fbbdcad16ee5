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

// mockstats serves the in-memory stats API used by the tests, for local
// development of the dashboard without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/statsapitest"
)

var (
	addr     = flag.String("addr", ":8000", "The TCP address to listen to")
	username = flag.String("user", "demo", "Username of the seeded account")
	password = flag.String("password", "demo1234", "Password of the seeded account")
)

func main() {
	flag.Parse()

	fake := statsapitest.New()
	u := fake.AddUser(api.User{
		Username:  *username,
		Email:     *username + "@example.com",
		FirstName: "Demo",
		LastName:  "User",
	}, *password)
	log.Printf("Seeded user %q (id %d)", u.Username, u.ID)
	log.Printf("%d teams, %d players", len(fake.Teams()), len(fake.Players()))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fake.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Mock stats API listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
