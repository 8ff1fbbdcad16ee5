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

package e2e

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/hoopdash/backend"
	"github.com/ttbt-io/hoopdash/backend/api"
	"github.com/ttbt-io/hoopdash/backend/statsapitest"
)

var (
	withChromeDP = flag.String("with-chromedp", "", "The url of the remote debugging port")
	searchDelay  = flag.Duration("search-delay", 150*time.Millisecond, "Search debounce delay for the test server")
)

const (
	demoUser     = "kbryant"
	demoPassword = "mamba824"
)

func TestMain(m *testing.M) {
	flag.Parse()
	exitCode := m.Run()
	os.Exit(exitCode)
}

// testServer is a running dashboard wired to an in-process stats API.
type testServer struct {
	URL  string
	API  *statsapitest.API
	Data string
}

func startTestServer(t *testing.T) *testServer {
	cert, err := SelfSignedCert()
	if err != nil {
		t.Fatalf("Failed to generate self-signed cert: %v", err)
	}

	fake := statsapitest.New()
	fake.AddUser(api.User{
		Username:  demoUser,
		Email:     "kobe@example.com",
		FirstName: "Kobe",
		LastName:  "Bryant",
	}, demoPassword)
	apiServer := fake.Start()
	t.Cleanup(apiServer.Close)

	dataDir := t.TempDir()
	s := storage.New(dataDir, nil)

	// Listen on a random free port on all interfaces (IPv4 forced)
	l, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	_, port, _ := net.SplitHostPort(l.Addr().String())

	server, err := backend.StartServer(backend.Options{
		Listener:    l,
		Cert:        cert,
		Debug:       true,
		DataDir:     dataDir,
		Storage:     s,
		APIURL:      apiServer.URL,
		CookieKey:   []byte("e2e-cookie-key-0123456789abcdef!"),
		SearchDelay: *searchDelay,
	})
	if err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	t.Cleanup(func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sdCtx)
	})

	localURL := fmt.Sprintf("https://localhost:%s/health", port)
	if err := waitForServer(localURL, 5*time.Second); err != nil {
		t.Fatalf("Server failed to start: %v", err)
	}
	return &testServer{
		URL:  fmt.Sprintf("https://devtest.local:%s", port),
		API:  fake,
		Data: dataDir,
	}
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	client := http.Client{Transport: tr}
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	for start := time.Now(); time.Since(start) < timeout; {
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Printf("Server at %s is ready!", url)
			return nil
		}
		log.Printf("waitForServer(%q): %v", url, err)
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return fmt.Errorf("timeout waiting for server at %s", url)
}

// newBrowser returns a chromedp context attached to the remote browser.
// JavaScript errors fail the test.
func newBrowser(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := chromedp.NewRemoteAllocator(t.Context(), *withChromeDP)
	t.Cleanup(cancel)
	ctx, cancel = chromedp.NewContext(ctx,
		chromedp.WithErrorf(log.Printf),
		chromedp.WithLogf(log.Printf),
	)
	t.Cleanup(cancel)
	ctx, cancel = context.WithTimeout(ctx, timeout)
	t.Cleanup(cancel)

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if ev.Type == runtime.APITypeError {
				args := make([]string, len(ev.Args))
				for i, arg := range ev.Args {
					args[i] = string(arg.Value)
				}
				t.Logf("JS CONSOLE ERROR: %s", strings.Join(args, " "))
				t.Fail()
				cancel()
			}
		case *runtime.EventExceptionThrown:
			t.Logf("JS EXCEPTION: %s", ev.ExceptionDetails.Text)
			t.Fail()
			cancel()
		}
	})
	return ctx
}

func runStep(t *testing.T, ctx context.Context, description string, actions ...chromedp.Action) {
	t.Helper()
	t.Logf("STEP: %s", description)
	runAction := func(i int, action chromedp.Action) {
		t.Helper()
		done := make(chan bool)
		defer close(done)
		go func() {
			d, ok := ctx.Deadline()
			if !ok {
				return
			}
			left := time.Until(d) - 5*time.Second
			select {
			case <-done:
				return
			case <-time.After(left):
				CaptureScreenshot(ctx, "/demo/debug-5-sec-left.png")
			case <-time.After(10 * time.Second):
				t.Logf("STEP %s [Action#%d]: single action took more than 10 sec", description, i)
				CaptureScreenshot(ctx, "/demo/debug-single-action-timeout.png")
			}
		}()
		if err := chromedp.Run(ctx, action); err != nil {
			CaptureScreenshot(ctx, "/demo/debug-failed-action.png")
			t.Fatalf("STEP FAILED: %s [Action#%d]: %v", description, i, err)
		}
	}
	for i, action := range actions {
		runAction(i, action)
	}
}
