package monitor

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cachex/core/backend"
)

const previewLimit = 100

// Hit describes a cached entry without its payload.
type Hit struct {
	CacheKey     string `json:"cache_key"`
	Method       string `json:"method"`
	Host         string `json:"host"`
	Path         string `json:"path"`
	QueryParams  string `json:"query_params"`
	ETag         string `json:"etag"`
	IsExpired    bool   `json:"is_expired"`
	TTLRemaining *int64 `json:"ttl_remaining"`
}

// Record extends Hit with payload details.
type Record struct {
	Hit
	ContentType    string `json:"content_type"`
	ContentSize    int    `json:"content_size"`
	ContentPreview string `json:"content_preview"`
}

// RouteCount is one entry of the frequently-cached-routes ranking.
type RouteCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type summary struct {
	TotalCachedEntries     int          `json:"total_cached_entries"`
	ActiveEntries          int          `json:"active_entries"`
	FrequentlyCachedRoutes []RouteCount `json:"frequently_cached_routes"`

	// Records endpoint only.
	TotalCacheSizeBytes  *int     `json:"total_cache_size_bytes,omitempty"`
	EstimatedCacheSizeKB *float64 `json:"estimated_cache_size_kb,omitempty"`
}

type hitsResponse struct {
	CachedHits   []Hit   `json:"cached_hits"`
	TotalHits    int     `json:"total_hits"`
	ValidHits    int     `json:"valid_hits"`
	ExpiredHits  int     `json:"expired_hits"`
	UniqueRoutes int     `json:"unique_routes"`
	Summary      summary `json:"summary"`
}

type recordsResponse struct {
	CachedHits   []Record `json:"cached_hits"`
	TotalHits    int      `json:"total_hits"`
	ValidHits    int      `json:"valid_hits"`
	ExpiredHits  int      `json:"expired_hits"`
	UniqueRoutes int      `json:"unique_routes"`
	Summary      summary  `json:"summary"`
}

// Routes returns the monitoring router for the given backend. A nil
// backend, or one without introspection support, yields empty responses.
func Routes(b backend.Backend) http.Handler {
	r := chi.NewRouter()
	r.Get("/cached-hits", handleHits(b))
	r.Get("/cached-records", handleRecords(b))
	return r
}

func snapshot(r *http.Request, b backend.Backend) []backend.Entry {
	intro, ok := b.(backend.Introspector)
	if !ok {
		return nil
	}
	entries, err := intro.Snapshot(r.Context())
	if err != nil {
		return nil
	}
	return entries
}

func buildHit(entry backend.Entry, now time.Time) Hit {
	method, host, path, query := backend.ParseKey(entry.Key)
	hit := Hit{
		CacheKey:    entry.Key,
		Method:      method,
		Host:        host,
		Path:        path,
		QueryParams: query,
		ETag:        entry.Value.ETag,
	}
	if !entry.ExpiresAt.IsZero() {
		remaining := int64(entry.ExpiresAt.Sub(now).Seconds())
		if remaining <= 0 {
			hit.IsExpired = true
			remaining = 0
		}
		hit.TTLRemaining = &remaining
	}
	return hit
}

func routeRanking(hits []Hit) []RouteCount {
	counts := make(map[string]int)
	for _, h := range hits {
		if h.Path != "" {
			counts[h.Path]++
		}
	}
	routes := make([]RouteCount, 0, len(counts))
	for path, count := range counts {
		routes = append(routes, RouteCount{Path: path, Count: count})
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Count != routes[j].Count {
			return routes[i].Count > routes[j].Count
		}
		return routes[i].Path < routes[j].Path
	})
	if len(routes) > 5 {
		routes = routes[:5]
	}
	return routes
}

func preview(content backend.Content) string {
	raw := content.Bytes()
	if len(raw) > previewLimit {
		raw = raw[:previewLimit]
	}
	return strings.ToValidUTF8(string(raw), "�")
}

func handleHits(b backend.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := hitsResponse{
			CachedHits: []Hit{},
			Summary:    summary{FrequentlyCachedRoutes: []RouteCount{}},
		}

		if b != nil {
			now := time.Now()
			for _, entry := range snapshot(r, b) {
				hit := buildHit(entry, now)
				resp.CachedHits = append(resp.CachedHits, hit)
				if hit.IsExpired {
					resp.ExpiredHits++
				} else {
					resp.ValidHits++
				}
			}
			resp.TotalHits = len(resp.CachedHits)
			resp.Summary.TotalCachedEntries = resp.TotalHits
			resp.Summary.ActiveEntries = resp.ValidHits
			resp.Summary.FrequentlyCachedRoutes = routeRanking(resp.CachedHits)
			resp.UniqueRoutes = uniqueRoutes(resp.CachedHits)
		}

		writeJSON(w, resp)
	}
}

func handleRecords(b backend.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := recordsResponse{
			CachedHits: []Record{},
			Summary:    summary{FrequentlyCachedRoutes: []RouteCount{}},
		}

		totalSize := 0
		if b != nil {
			now := time.Now()
			hits := make([]Hit, 0)
			for _, entry := range snapshot(r, b) {
				hit := buildHit(entry, now)
				hits = append(hits, hit)
				record := Record{
					Hit:            hit,
					ContentType:    entry.Value.Content.Kind(),
					ContentSize:    entry.Value.Content.Size(),
					ContentPreview: preview(entry.Value.Content),
				}
				totalSize += record.ContentSize
				resp.CachedHits = append(resp.CachedHits, record)
				if hit.IsExpired {
					resp.ExpiredHits++
				} else {
					resp.ValidHits++
				}
			}
			resp.TotalHits = len(resp.CachedHits)
			resp.Summary.TotalCachedEntries = resp.TotalHits
			resp.Summary.ActiveEntries = resp.ValidHits
			resp.Summary.FrequentlyCachedRoutes = routeRanking(hits)
			resp.UniqueRoutes = uniqueRoutes(hits)
		}

		sizeKB := float64(totalSize) / 1024
		resp.Summary.TotalCacheSizeBytes = &totalSize
		resp.Summary.EstimatedCacheSizeKB = &sizeKB

		writeJSON(w, resp)
	}
}

func uniqueRoutes(hits []Hit) int {
	paths := make(map[string]struct{})
	for _, h := range hits {
		paths[h.Path] = struct{}{}
	}
	return len(paths)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
