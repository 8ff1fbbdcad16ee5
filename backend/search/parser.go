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

package search

import (
	"strings"
	"unicode"
)

// Operator is the comparison attached to a Filter.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // date:2010-01-01..2012-06-30
)

// Longest prefixes first so ">=" wins over ">".
var comparisonPrefixes = []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess}

// Filter is a key:value criterion typed into a search box, e.g. "date:2010..2012".
type Filter struct {
	Key      string
	Value    string
	MaxValue string // OpRange only
	Operator Operator
}

// Query is a parsed search box input.
type Query struct {
	Filters  []Filter
	FreeText []string
}

// Term is the text sent to the stats API: the free text words joined by a
// single space.
func (q Query) Term() string {
	return strings.Join(q.FreeText, " ")
}

// Filter returns the first filter with the given key.
func (q Query) Filter(key string) (Filter, bool) {
	for _, f := range q.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

// Parse splits a search box input into free text and key:value filters.
// Quoted strings stay together, so `"Los Angeles" date:2010..2012` yields the
// free text "Los Angeles" and one date range filter. Tokens that look like
// filters but are malformed ("foo:", "a:b:c") are kept as free text.
func Parse(input string) Query {
	q := Query{
		Filters:  []Filter{},
		FreeText: []string{},
	}
	for _, tok := range tokenize(input) {
		f, ok := parseFilter(tok)
		if !ok {
			q.FreeText = append(q.FreeText, unquote(tok))
			continue
		}
		q.Filters = append(q.Filters, f)
	}
	return q
}

func parseFilter(tok string) (Filter, bool) {
	key, val, found := strings.Cut(tok, ":")
	if !found {
		return Filter{}, false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	val = strings.TrimSpace(val)
	if key == "" || val == "" || strings.ContainsAny(key, `"'`) {
		return Filter{}, false
	}
	if strings.Contains(val, ":") && !isQuoted(val) {
		return Filter{}, false
	}

	if lo, hi, ok := strings.Cut(val, ".."); ok && !isQuoted(val) {
		return Filter{Key: key, Value: unquote(lo), MaxValue: unquote(hi), Operator: OpRange}, true
	}
	for _, op := range comparisonPrefixes {
		if rest, ok := strings.CutPrefix(val, string(op)); ok {
			return Filter{Key: key, Value: unquote(rest), Operator: op}, true
		}
	}
	return Filter{Key: key, Value: unquote(val), Operator: OpEqual}, true
}

// tokenize splits on whitespace outside of quotes. Quotes are kept in the
// token.
func tokenize(input string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'")
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
