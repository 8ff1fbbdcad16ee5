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
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
)

// MasterKeyEnv names the environment variable holding the passphrase of the
// storage master key.
const MasterKeyEnv = "HD_MASTER_KEY"

const (
	masterKeyFile = "master.key"
	cookieKeyFile = "cookie-key.json"
)

// OpenStorage opens the data directory. With a passphrase the files are
// encrypted with a master key kept in dataDir, created on first use. Without
// one the data is stored unencrypted, which is refused when a master key
// already exists.
func OpenStorage(dataDir, passphrase string) (*storage.Storage, error) {
	keyFile := filepath.Join(dataDir, masterKeyFile)
	if passphrase == "" {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but %s is not set; refusing to read encrypted data in unencrypted mode", keyFile, MasterKeyEnv)
		}
		log.Printf("Warning: No %s provided. Data will be stored UNENCRYPTED.", MasterKeyEnv)
		return storage.New(dataDir, nil), nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	masterKey, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
	switch {
	case err == nil:
		log.Println("Loaded master encryption key.")
	case errors.Is(err, os.ErrNotExist):
		log.Println("Initializing new master encryption key...")
		if masterKey, err = crypto.CreateMasterKey(); err != nil {
			return nil, fmt.Errorf("creating master key: %w", err)
		}
		if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
			return nil, fmt.Errorf("saving master key: %w", err)
		}
	default:
		return nil, fmt.Errorf("reading master key: %w", err)
	}
	s := storage.New(dataDir, masterKey)
	s.EnableCompression(true)
	return s, nil
}

type cookieKey struct {
	Key []byte `json:"key"`
}

// LoadCookieKey returns the key that authenticates session cookies. It is
// generated once and kept in storage so that cookies survive restarts.
func LoadCookieKey(s *storage.Storage) ([]byte, error) {
	var k cookieKey
	err := s.ReadDataFile(cookieKeyFile, &k)
	if err == nil && len(k.Key) >= 32 {
		return k.Key, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	k.Key = make([]byte, 32)
	if _, err := rand.Read(k.Key); err != nil {
		return nil, err
	}
	if err := s.SaveDataFile(cookieKeyFile, &k); err != nil {
		return nil, fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	log.Println("Generated a new cookie key.")
	return k.Key, nil
}
