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
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/hoopdash/backend"
	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/statsapitest"
	"github.com/ttbt-io/hoopdash/tools/e2ehelpers"
)

var (
	chromeURL = flag.String("chrome-url", "", "The url of the remote debugging port")
	outputDir = flag.String("output-dir", "/screenshots", "Directory to save screenshots")
)

const (
	demoUser     = "screenshots"
	demoPassword = "screenshots1"
	seasonStart  = "2021-10-19"
	seasonEnd    = "2022-04-10"
)

func main() {
	flag.Parse()

	if *chromeURL == "" {
		log.Fatal("--chrome-url must be set")
	}

	baseURL := startServer()
	log.Printf("Server started at %s", baseURL)

	ctx, cancel := chromedp.NewRemoteAllocator(context.Background(), *chromeURL)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx, chromedp.WithLogf(log.Printf))
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	// Ensure output dir exists
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	log.Println("Starting screenshot generation...")

	if err := generateScreenshots(ctx, baseURL); err != nil {
		log.Fatalf("Failed to generate screenshots: %v", err)
	}

	log.Println("Screenshots generated successfully.")
}

func debugFailure(ctx context.Context, name string) {
	log.Printf("DEBUG: capturing failure info for %s", name)
	var htmlContent string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &htmlContent)); err != nil {
		log.Printf("DEBUG: Failed to capture HTML: %v", err)
	} else {
		log.Printf("DEBUG: HTML Dump for %s:\n%s", name, htmlContent)
	}

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err == nil {
		os.WriteFile(filepath.Join(*outputDir, fmt.Sprintf("debug-%s.png", name)), buf, 0644)
		log.Printf("DEBUG: Saved screenshot to debug-%s.png", name)
	} else {
		log.Printf("DEBUG: Failed to capture screenshot: %v", err)
	}
}

// runAction executes a chromedp action with a timeout and debug capture on failure.
func runAction(ctx context.Context, name string, action chromedp.Action, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- chromedp.Run(stepCtx, action)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("Action '%s' failed: %v", name, err)
			debugFailure(ctx, name+"-failed")
			return err
		}
		return nil
	case <-stepCtx.Done():
		log.Printf("Action '%s' timed out", name)
		debugFailure(ctx, name+"-timeout")
		return stepCtx.Err()
	}
}

// pick wraps e2ehelpers.PickSearchResult as an action.
func pick(box, query string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return e2ehelpers.PickSearchResult(ctx, box, query)
	})
}

func dates(form string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.SetValue(form+` input[name="start_date"]`, seasonStart, chromedp.ByQuery),
		chromedp.SetValue(form+` input[name="end_date"]`, seasonEnd, chromedp.ByQuery),
	}
}

func generateScreenshots(ctx context.Context, baseURL string) error {
	shots := []struct {
		name   string
		file   string
		action chromedp.Tasks
	}{
		{"login", "login.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/"),
			chromedp.WaitVisible(`form[action="/login"]`, chromedp.ByQuery),
		}},
		{"sign-in", "", chromedp.Tasks{
			chromedp.ActionFunc(func(ctx context.Context) error {
				return e2ehelpers.Login(ctx, baseURL, demoUser, demoPassword)
			}),
			e2ehelpers.DisableCSSAnimations(),
		}},
		{"setup", "setup.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/setup"),
			pick(backend.BoxSetupTeam, "warriors"),
			pick(backend.BoxSetupPlayer, "curry"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				return e2ehelpers.TypeSearch(ctx, backend.BoxSetupPlayer, "cur")
			}),
		}},
		{"setup-save", "", chromedp.Tasks{
			e2ehelpers.DismissSearch(backend.BoxSetupPlayer),
			chromedp.Click(`#setup-save`, chromedp.ByQuery),
			chromedp.WaitVisible(`#setup-saved`, chromedp.ByQuery),
		}},
		{"home", "home.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/home"),
			chromedp.WaitVisible(`#team-highlight`, chromedp.ByQuery),
			chromedp.Sleep(500 * time.Millisecond),
		}},
		{"player-stats", "player-stats.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/graphs/player-stats"),
			pick(backend.BoxPlayerA, "jokic"),
			pick(backend.BoxPlayerB, "giannis"),
			dates(`#player-form`),
			chromedp.Submit(`#player-form`, chromedp.ByQuery),
			chromedp.WaitVisible(`#chart svg`, chromedp.ByQuery),
		}},
		{"team-stats", "team-stats.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/graphs/team-stats"),
			pick(backend.BoxTeamA, "celtics"),
			pick(backend.BoxTeamB, "heat"),
			chromedp.SetValue(`select[name="game_part"]`, "4th", chromedp.ByQuery),
			chromedp.Submit(`#team-form`, chromedp.ByQuery),
			chromedp.WaitVisible(`#chart svg`, chromedp.ByQuery),
		}},
		{"clutch", "clutch.png", chromedp.Tasks{
			chromedp.Navigate(baseURL + "/graphs/clutch-factor"),
			pick(backend.BoxClutch, "butler"),
			pick(backend.BoxClutch, "doncic"),
			pick(backend.BoxClutch, "tatum"),
			dates(`#clutch-form`),
			chromedp.Submit(`#clutch-form`, chromedp.ByQuery),
			chromedp.WaitVisible(`#chart svg`, chromedp.ByQuery),
		}},
	}

	for _, s := range shots {
		log.Printf("Capturing: %s", s.name)
		if err := runAction(ctx, s.name, s.action, 30*time.Second); err != nil {
			return err
		}
		if s.file == "" {
			continue
		}
		if err := e2ehelpers.CaptureScreenshot(ctx, filepath.Join(*outputDir, s.file)); err != nil {
			return err
		}
	}
	return nil
}

func startServer() string {
	cert, err := e2ehelpers.SelfSignedCert()
	if err != nil {
		log.Fatalf("Failed to generate cert: %v", err)
	}

	fake := statsapitest.New()
	fake.AddUser(api.User{
		Username:  demoUser,
		Email:     "screenshots@example.com",
		FirstName: "Sam",
		LastName:  "Shooter",
	}, demoPassword)
	apiServer := fake.Start()

	dataDir, err := os.MkdirTemp("", "hoopdash-screenshots")
	if err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}
	l, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	if _, err := backend.StartServer(backend.Options{
		Listener:  l,
		Cert:      cert,
		DataDir:   dataDir,
		Storage:   storage.New(dataDir, nil),
		APIURL:    apiServer.URL,
		CookieKey: []byte("screenshots-cookie-key-012345678"),
	}); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	_, port, _ := net.SplitHostPort(l.Addr().String())
	return fmt.Sprintf("https://devtest.local:%s", port)
}
