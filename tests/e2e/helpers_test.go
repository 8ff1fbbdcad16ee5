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

	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/hoopdash/tools/e2ehelpers"
)

var SelfSignedCert = e2ehelpers.SelfSignedCert
var DisableCSSAnimations = e2ehelpers.DisableCSSAnimations
var WaitAnyVisible = e2ehelpers.WaitAnyVisible
var Logout = e2ehelpers.Logout
var TypeSearch = e2ehelpers.TypeSearch
var PickSearchResult = e2ehelpers.PickSearchResult
var WaitSearchValue = e2ehelpers.WaitSearchValue
var DismissSearch = e2ehelpers.DismissSearch
var ChartText = e2ehelpers.ChartText
var CaptureScreenshot = e2ehelpers.CaptureScreenshot

func waitUntilDisplayNone(selector string) chromedp.Tasks {
	return e2ehelpers.WaitUntilDisplayNone(selector)
}

// Login signs in as the demo user.
func Login(ctx context.Context, baseURL string) error {
	return e2ehelpers.Login(ctx, baseURL, demoUser, demoPassword)
}

func resultCount(box string, n *int) chromedp.Action {
	return chromedp.Evaluate(`document.querySelectorAll('.searchbox[data-box="`+box+`"] .results li[data-index]').length`, n)
}
