// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package viewstate

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

const memoryMaxKeys = 10000

// MemoryStore keeps view state for the lifetime of the process, similar to
// a browser session. Entries expire after ttl when ttl is positive.
type MemoryStore struct {
	cache cache.Cache[string, string]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	c := cache.NewCache[string, string]().WithMaxKeys(memoryMaxKeys)
	if ttl > 0 {
		c = c.WithTTL(ttl)
	}
	return &MemoryStore{cache: c}
}

func (m *MemoryStore) Get(key string) (string, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *MemoryStore) Set(key, value string) error {
	m.cache.Set(key, value, 0)
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.cache.Invalidate(key)
	return nil
}
