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

// Package forms validates the login, registration and profile forms and maps
// stats API rejections back onto form fields.
package forms

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// General is the Errors key for messages that belong to no single field.
const General = "general"

// GenericFailure is shown when the API rejects a request for a reason the
// form does not recognize.
const GenericFailure = "Request failed, please try again."

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return strings.Join(parts, "; ")
}

// Rule returns a message when value is not acceptable.
type Rule func(value string) (msg string, ok bool)

// Field describes one form input.
type Field struct {
	Name        string
	Label       string
	Type        string // HTML input type
	Placeholder string
	Hint        string
	MaxLength   int
	Optional    bool
	Rules       []Rule
}

// Schema is an ordered list of fields.
type Schema struct {
	Fields []Field
}

// Validate checks values against the schema. Only the first failing rule of
// each field is reported. It returns nil when everything passes.
func (s Schema) Validate(values map[string]string) Errors {
	errs := Errors{}
	for _, f := range s.Fields {
		v := values[f.Name]
		if v == "" && f.Optional {
			continue
		}
		if v == "" {
			errs[f.Name] = fmt.Sprintf("%s is required!", f.Label)
			continue
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(v) > f.MaxLength {
			errs[f.Name] = fmt.Sprintf("%s must have at most %d characters!", f.Label, f.MaxLength)
			continue
		}
		for _, r := range f.Rules {
			if msg, ok := r(v); !ok {
				errs[f.Name] = msg
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MinLen requires at least n characters.
func MinLen(n int, msg string) Rule {
	return func(v string) (string, bool) {
		return msg, utf8.RuneCountInString(v) >= n
	}
}

// Matches requires re to match.
func Matches(re *regexp.Regexp, msg string) Rule {
	return func(v string) (string, bool) {
		return msg, re.MatchString(v)
	}
}

// Email requires a bare address such as name@domain.com.
func Email(msg string) Rule {
	return func(v string) (string, bool) {
		return msg, isValidEmail(v)
	}
}

// isValidEmail accepts only a plain address, not "Name <addr>".
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndexByte(email, '@'):], ".")
}

var (
	nameRegex     = regexp.MustCompile(`^[A-ZČĆŠĐŽ][a-zA-ZČĆŠĐŽčćšđž]*$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)
)

const (
	emailMaxLength = 50
	textMaxLength  = 20
)

func firstName() Field {
	return Field{
		Name: "first_name", Label: "First name", Type: "text", Placeholder: "Name", MaxLength: textMaxLength,
		Hint: "The first name must have at least 2 characters and start with a capital letter!",
		Rules: []Rule{
			MinLen(2, "First name must have at least 2 characters!"),
			Matches(nameRegex, "Invalid first name format!"),
		},
	}
}

func lastName() Field {
	return Field{
		Name: "last_name", Label: "Last name", Type: "text", Placeholder: "Surname", MaxLength: textMaxLength,
		Hint: "The last name must have at least 2 characters and start with a capital letter!",
		Rules: []Rule{
			MinLen(2, "Last name must have at least 2 characters!"),
			Matches(nameRegex, "Invalid last name format!"),
		},
	}
}

func email() Field {
	return Field{
		Name: "email", Label: "Email", Type: "email", Placeholder: "Email", MaxLength: emailMaxLength,
		Hint:  "Enter a valid email format (e.g. name@domain.com)",
		Rules: []Rule{Email("Invalid email format!")},
	}
}

// Register is the sign-up form.
var Register = Schema{Fields: []Field{
	firstName(),
	lastName(),
	{
		Name: "username", Label: "Username", Type: "text", Placeholder: "Username", MaxLength: textMaxLength,
		Hint: "The username must start with a letter and have at least 4 characters!",
		Rules: []Rule{
			MinLen(4, "Username must have at least 4 characters!"),
			Matches(usernameRegex, "Invalid username format!"),
		},
	},
	email(),
	{
		Name: "password", Label: "Password", Type: "password", Placeholder: "Password", MaxLength: textMaxLength,
		Hint:  "The password must have at least 6 characters!",
		Rules: []Rule{MinLen(6, "Password must have at least 6 characters!")},
	},
}}

// Login is the sign-in form. It only checks presence.
var Login = Schema{Fields: []Field{
	{Name: "username", Label: "Username", Type: "text", Placeholder: "Username", MaxLength: textMaxLength},
	{Name: "password", Label: "Password", Type: "password", Placeholder: "Password", MaxLength: textMaxLength},
}}

// Profile is the edit-profile form.
var Profile = Schema{Fields: []Field{firstName(), lastName(), email()}}

// Values extracts the schema's fields from a form getter such as
// (*http.Request).PostFormValue, trimming surrounding space except for
// passwords.
func (s Schema) Values(get func(string) string) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v := get(f.Name)
		if f.Type != "password" {
			v = strings.TrimSpace(v)
		}
		out[f.Name] = v
	}
	return out
}

// Kind selects the fallback message of ServerErrors.
type Kind int

const (
	KindRegister Kind = iota
	KindLogin
	KindProfile
)

var serverMessages = []struct {
	substr string
	field  string
}{
	{"Username already exists", "username"},
	{"Email already exists", "email"},
	{"Invalid username or password", General},
	{"Invalid credentials", General},
}

// ServerErrors maps the detail strings of a rejected request onto fields.
// Unrecognized details become a general message; for logins the API's own
// text is shown.
func ServerErrors(kind Kind, details []string) Errors {
	errs := Errors{}
	var unmatched []string
	for _, d := range details {
		matched := false
		for _, m := range serverMessages {
			if strings.Contains(d, m.substr) {
				if _, dup := errs[m.field]; !dup {
					errs[m.field] = m.substr
				}
				matched = true
				break
			}
		}
		if !matched {
			unmatched = append(unmatched, d)
		}
	}
	if len(errs) == 0 {
		if kind == KindLogin && len(unmatched) > 0 {
			errs[General] = strings.Join(unmatched, " ")
		} else {
			errs[General] = GenericFailure
		}
	}
	return errs
}
