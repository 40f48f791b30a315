package fncache

import (
	"encoding/json"
	"net/http"
	"time"
)

// DebugResponse represents the JSON response structure for debug endpoints
type DebugResponse struct {
	Stats *DebugStats `json:"stats"`
	Keys  []DebugKey  `json:"keys,omitempty"`
}

// DebugStats represents cache statistics in the debug response
type DebugStats struct {
	Hits          int64        `json:"hits"`
	Misses        int64        `json:"misses"`
	Evictions     int64        `json:"evictions"`
	Invalidations int64        `json:"invalidations"`
	StoreErrors   int64        `json:"storeErrors"`
	KeyCount      int64        `json:"keyCount"`
	InFlight      int64        `json:"inFlight"`
	HitRate       float64      `json:"hitRate"`
	Total         int64        `json:"total"`
	Config        *DebugConfig `json:"config"`
}

// DebugConfig represents cache configuration in the debug response
type DebugConfig struct {
	MaxEntries      int           `json:"maxEntries"`
	DefaultTTL      time.Duration `json:"defaultTTL"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	KeyPrefix       string        `json:"keyPrefix,omitempty"`
	CodecName       string        `json:"codec"`
}

// DebugKey represents a cache key with its payload size. Payloads are
// serialized, so only their size is reported, not their content.
type DebugKey struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// DebugHandler returns an HTTP handler that provides cache debug information
// The handler supports the following endpoints:
//   - GET /stats - Returns only cache statistics (no keys)
//   - GET /keys - Returns statistics and all cache keys with payload sizes
//   - GET / - Returns statistics and all cache keys (same as /keys)
func (c *Cache) DebugHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		var response DebugResponse
		includeKeys := r.URL.Path == "/" || r.URL.Path == "/keys"

		c.updateKeyCount()
		response.Stats = &DebugStats{
			Hits:          c.stats.Hits(),
			Misses:        c.stats.Misses(),
			Evictions:     c.stats.Evictions(),
			Invalidations: c.stats.Invalidations(),
			StoreErrors:   c.stats.StoreErrors(),
			KeyCount:      c.stats.KeyCount(),
			InFlight:      c.stats.InFlight(),
			HitRate:       c.stats.HitRate(),
			Total:         c.stats.Total(),
			Config: &DebugConfig{
				MaxEntries:      c.config.MaxEntries,
				DefaultTTL:      c.config.DefaultTTL,
				CleanupInterval: c.config.CleanupInterval,
				KeyPrefix:       c.config.KeyPrefix,
				CodecName:       c.codec.Name(),
			},
		}

		if includeKeys {
			keys := c.Keys()
			response.Keys = make([]DebugKey, 0, len(keys))

			for _, key := range keys {
				data, err := c.store.Get(c.fullKey(key))
				if err != nil {
					continue
				}
				response.Keys = append(response.Keys, DebugKey{
					Key:  key,
					Size: len(data),
				})
			}
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		}
	})
}

// NewDebugServer creates a new HTTP server with cache debug endpoints
// The server serves on the following routes:
//   - GET /stats - Cache statistics only
//   - GET /keys - Cache statistics and keys
//   - GET / - Cache statistics and keys (default)
func (c *Cache) NewDebugServer(addr string) *http.Server {
	mux := http.NewServeMux()
	handler := c.DebugHandler()

	mux.Handle("/stats", handler)
	mux.Handle("/keys", handler)
	mux.Handle("/", handler)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
