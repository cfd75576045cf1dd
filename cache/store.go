// SPDX-License-Identifier: GPL-3.0-only

package cache

import (
	"docgate-server/commons"
)

var Store Cache

// InitCache selects the counter backend. CACHE_BACKEND=redis picks the
// Redis client; anything else gets the in-process store.
func InitCache() {
	backend := commons.GetEnv("CACHE_BACKEND", "memory")
	if backend == "redis" {
		commons.Logger.Info("Using Redis cache backend")
		Store = NewRedisCache()
		return
	}
	commons.Logger.Info("Using in-memory cache backend")
	Store = NewMemoryCache()
}
