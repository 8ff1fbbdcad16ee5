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

package e2ehelpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// SelfSignedCert returns a throwaway certificate for localhost and the
// devtest names used inside the test containers.
func SelfSignedCert() (*tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Test Org"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour * 24),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost", "devtest", "devtest.local"},
	}
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, err
	}
	crtPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	cert, err := tls.X509KeyPair(crtPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// CaptureScreenshot captures a screenshot and saves it to the specified filename.
func CaptureScreenshot(ctx context.Context, filename string) error {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for screenshot: %w", err)
	}

	if err := os.WriteFile(filename, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot to file: %w", err)
	}
	log.Printf("Saved screenshot to %s", filename)
	return nil
}

func DisableCSSAnimations() chromedp.ActionFunc {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.Evaluate(`
                        const style = document.createElement('style');
                        style.innerHTML = '*{-webkit-transition-duration:0s!important;transition-duration:0s!important;-webkit-animation-duration:0s!important;animation-duration:0s!important;}';
                        document.head.appendChild(style);
                `, nil).Do(ctx)
	})
}

func WaitAnyVisible(sel string, match *string, timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(200 * time.Millisecond) // Check frequently
		defer ticker.Stop()

		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		for {
			select {
			case <-ticker.C:
				err := chromedp.Evaluate(fmt.Sprintf(
					`(function(selectors) {
					const elements = document.querySelectorAll(selectors);
					for (let i = 0; i < elements.length; i++) {
						const el = elements[i];
						const style = window.getComputedStyle(el);
						if (el.offsetHeight !== 0 && style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0') {
							return el.tagName.toLowerCase() + (el.id ? '#' + el.id : ''); 
						}
					}
					return '';
				})('%s')`, sel), match).Do(ctx)
				if err == nil && *match != "" {
					return nil
				}
			case <-timeoutCtx.Done():
				return fmt.Errorf("timeout waiting for any element from list to become visible: %w", timeoutCtx.Err())
			}
		}
	})
}

// --- Auth ---

// Login signs in through the login form and waits for the home page.
func Login(ctx context.Context, baseURL, username, password string) error {
	done := make(chan bool)
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-time.After(10 * time.Second):
			CaptureScreenshot(ctx, "/demo/debug-login-taking-too-long.png")
		}
	}()
	log.Print("Login: clearing cookies")
	if err := chromedp.Run(ctx, network.ClearBrowserCookies()); err != nil {
		return err
	}
	log.Printf("Login: opening %s/", baseURL)
	return chromedp.Run(ctx,
		chromedp.Navigate(baseURL+"/"),
		chromedp.WaitVisible(`form[action="/login"]`, chromedp.ByQuery),
		chromedp.SendKeys(`#username`, username, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, password, chromedp.ByQuery),
		chromedp.Submit(`form[action="/login"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#logout`, chromedp.ByQuery),
	)
}

// Logout signs out from the navigation bar.
func Logout(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Click(`#logout`, chromedp.ByQuery),
		chromedp.WaitVisible(`form[action="/login"]`, chromedp.ByQuery),
	)
}

// --- Search boxes ---

// TypeSearch types query into the named search box and waits for the
// debounced results to show up.
func TypeSearch(ctx context.Context, box, query string) error {
	input := fmt.Sprintf(`#box-%s`, box)
	results := fmt.Sprintf(`.searchbox[data-box="%s"] .results li[data-index]`, box)
	return chromedp.Run(ctx,
		chromedp.WaitVisible(input, chromedp.ByQuery),
		chromedp.SetValue(input, "", chromedp.ByQuery),
		chromedp.SendKeys(input, query, chromedp.ByQuery),
		chromedp.WaitVisible(results, chromedp.ByQuery),
	)
}

// PickSearchResult searches for query and clicks the first result. The
// page reloads with the selection applied.
func PickSearchResult(ctx context.Context, box, query string) error {
	if err := TypeSearch(ctx, box, query); err != nil {
		return fmt.Errorf("search %s: %w", box, err)
	}
	first := fmt.Sprintf(`.searchbox[data-box="%s"] .results li[data-index="0"]`, box)
	var label string
	if err := chromedp.Run(ctx, chromedp.Text(first, &label, chromedp.ByQuery)); err != nil {
		return err
	}
	log.Printf("PickSearchResult(%s): %q", box, strings.TrimSpace(label))
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.__beforePick = true`, nil),
		chromedp.Click(first, chromedp.ByQuery),
		WaitReload(),
	)
}

// WaitReload waits for a page load after window.__beforePick was set.
func WaitReload() chromedp.Action {
	return chromedp.Poll(`window.__beforePick === undefined && document.readyState === 'complete'`, nil,
		chromedp.WithPollingInterval(200*time.Millisecond),
		chromedp.WithPollingTimeout(10*time.Second))
}

// WaitSearchValue waits until the named box shows value, which is what the
// reloaded page renders after a selection.
func WaitSearchValue(box, value string) chromedp.Action {
	return chromedp.Poll(fmt.Sprintf(`(() => {
			const el = document.querySelector('#box-%s');
			return el !== null && el.value === %q;
		})()`, box, value), nil,
		chromedp.WithPollingInterval(200*time.Millisecond),
		chromedp.WithPollingTimeout(10*time.Second))
}

// DismissSearch presses Escape in the named box.
func DismissSearch(box string) chromedp.Action {
	return chromedp.SendKeys(fmt.Sprintf(`#box-%s`, box), kb.Escape, chromedp.ByQuery)
}

// ChartText returns the text content of the rendered chart.
func ChartText(text *string) chromedp.Action {
	return chromedp.Text(`#chart svg`, text, chromedp.ByQuery)
}



// WaitUntilDisplayNone waits until the element is hidden (display: none) or removed.
func WaitUntilDisplayNone(selector string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			log.Printf("WaitUntilDisplayNone: %s", selector)
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			timeout := time.After(10 * time.Second)
			for {
				select {
				case <-ctx.Done():
					return fmt.Errorf("context cancelled while waiting for %s to have display: none", selector)
				case <-ticker.C:
					var elementExists bool
					err := chromedp.Evaluate(fmt.Sprintf(`document.querySelector('%s') !== null`, selector), &elementExists).Do(ctx)
					if err != nil {
						if strings.Contains(err.Error(), "node for selector") {
							return nil
						}
						return fmt.Errorf("error checking existence of %s: %w", selector, err)
					}
					if !elementExists {
						return nil
					}

					var display string
					err = chromedp.Evaluate(fmt.Sprintf(`window.getComputedStyle(document.querySelector('%s')).display`, selector), &display).Do(ctx)
					if err != nil {
						return fmt.Errorf("error getting display style for %s: %w", selector, err)
					}
					if display == "none" {
						return nil
					}
				case <-timeout:
					return fmt.Errorf("timeout waiting for %s to have display: none (current display: visible)", selector)
				}
			}
		}),
	}
}
