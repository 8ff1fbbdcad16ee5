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

// Package cache holds short-lived copies of stats API responses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a search response stays valid.
const DefaultTTL = 60 * time.Second

// Cache stores response bodies by key. Misses and backend failures look the
// same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// LRU is an in-process cache with a fixed size and per-entry TTL.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRU returns an LRU holding at most size entries for ttl each.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *LRU) Set(_ context.Context, key string, value []byte) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	return c.lru.Len()
}

// Redis is a cache shared between hoopdash instances.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to the server at url, e.g. redis://localhost:6379/0.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: "hoopdash:api:", ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[CACHE] redis get %s: %v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (c *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] redis set %s: %v", key, err)
	}
}

// Close closes the underlying client.
func (c *Redis) Close() error {
	return c.client.Close()
}
