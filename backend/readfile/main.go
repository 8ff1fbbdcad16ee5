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

// readfile prints stored session records as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ttbt-io/hoopdash/backend"
)

var (
	dataDir  = flag.String("data-dir", "data", "Directory for session data")
	all      = flag.Bool("all", false, "Print every session record")
	showToks = flag.Bool("show-tokens", false, "Print tokens in full")
)

func main() {
	flag.Parse()
	store, err := backend.OpenStorage(*dataDir, os.Getenv(backend.MasterKeyEnv))
	if err != nil {
		log.Fatal(err)
	}
	sm := backend.NewSessionManager(*dataDir, store, "", []byte("unused"))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	dump := func(rec *backend.SessionRecord) {
		if !*showToks && len(rec.Token) > 12 {
			rec.Token = rec.Token[:6] + "..." + rec.Token[len(rec.Token)-6:]
		}
		fmt.Printf("=========== %s (updated %s) ===========\n", rec.ID, time.Unix(rec.UpdatedAt, 0).Format(time.RFC3339))
		if err := enc.Encode(rec); err != nil {
			log.Printf("JSON: %s: %v", rec.ID, err)
		}
	}

	if *all {
		for rec, err := range sm.ListAll() {
			if err != nil {
				log.Fatal(err)
			}
			dump(rec)
		}
		return
	}
	for _, arg := range flag.Args() {
		id := strings.TrimSuffix(arg[strings.LastIndex(arg, "/")+1:], ".json")
		rec, err := sm.Load(id)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		dump(rec)
	}
}
