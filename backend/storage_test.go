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
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenStorage(t *testing.T) {
	tempDir := t.TempDir()

	s, err := OpenStorage(tempDir, "correct horse")
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, masterKeyFile)); err != nil {
		t.Fatalf("Master key not created: %v", err)
	}
	key, err := LoadCookieKey(s)
	if err != nil {
		t.Fatalf("LoadCookieKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("Expected a 32 byte key, got %d", len(key))
	}

	// Reopening with the same passphrase finds the same cookie key.
	s2, err := OpenStorage(tempDir, "correct horse")
	if err != nil {
		t.Fatalf("OpenStorage again: %v", err)
	}
	key2, err := LoadCookieKey(s2)
	if err != nil {
		t.Fatalf("LoadCookieKey again: %v", err)
	}
	if !bytes.Equal(key, key2) {
		t.Error("Cookie key changed across restarts")
	}

	if _, err := OpenStorage(tempDir, ""); err == nil {
		t.Error("Expected unencrypted mode to be refused once a master key exists")
	}
}

func TestOpenStorage_Unencrypted(t *testing.T) {
	s, err := OpenStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if _, err := LoadCookieKey(s); err != nil {
		t.Fatalf("LoadCookieKey: %v", err)
	}
}
