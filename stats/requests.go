package stats

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// visitorWindow is how long a visitor counts as unique
const visitorWindow = 24 * time.Hour

// Requests collects live request statistics for the running process
type Requests struct {
	mutex          sync.RWMutex
	visitors       map[string]time.Time // IP -> last visit
	auditRequests  int
	errorCount     int
	popularURLs    map[string]int
	totalAuditTime time.Duration
	now            func() time.Time
}

// URLCount is one entry of the popular URL ranking
type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Snapshot is the JSON view served by the statistics endpoint
type Snapshot struct {
	UniqueVisitors24h int        `json:"uniqueVisitors24h"`
	TotalRequests     int        `json:"totalRequests"`
	ErrorRate         float64    `json:"errorRate"`
	AverageAuditMs    float64    `json:"averageAuditMs"`
	PopularURLs       []URLCount `json:"popularUrls,omitempty"`
}

// NewRequests creates an empty request tracker
func NewRequests() *Requests {
	return &Requests{
		visitors:    make(map[string]time.Time),
		popularURLs: make(map[string]int),
		now:         time.Now,
	}
}

// TrackVisitor records a visitor by IP
func (r *Requests) TrackVisitor(ip string) {
	if ip == "" {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.visitors[ip] = r.now()
}

// TrackAudit records one audit request against the storefront URL
func (r *Requests) TrackAudit(storeURL string, elapsed time.Duration, failed bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.auditRequests++
	if cleaned := cleanURL(storeURL); cleaned != "" {
		r.popularURLs[cleaned]++
	}
	if failed {
		r.errorCount++
	}
	r.totalAuditTime += elapsed
}

// cleanURL reduces a URL to scheme, host and path. Local and API URLs
// are not tracked.
func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	if strings.Contains(host, "localhost") ||
		strings.Contains(host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}

	return strings.TrimSuffix(cleaned, "/")
}

// PruneVisitors forgets visitors outside the unique visitor window
func (r *Requests) PruneVisitors() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cutoff := r.now().Add(-visitorWindow)
	removed := 0
	for ip, lastVisit := range r.visitors {
		if lastVisit.Before(cutoff) {
			delete(r.visitors, ip)
			removed++
		}
	}
	return removed
}

func (r *Requests) uniqueVisitors() int {
	cutoff := r.now().Add(-visitorWindow)
	count := 0
	for _, lastVisit := range r.visitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// topURLs ranks by count, ties broken alphabetically
func (r *Requests) topURLs(n int) []URLCount {
	ranked := make([]URLCount, 0, len(r.popularURLs))
	for u, count := range r.popularURLs {
		ranked = append(ranked, URLCount{URL: u, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].URL < ranked[j].URL
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Snapshot returns the current statistics. Popular URLs are only
// included in development mode.
func (r *Requests) Snapshot(devMode bool) Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snap := Snapshot{
		UniqueVisitors24h: r.uniqueVisitors(),
		TotalRequests:     r.auditRequests,
	}
	if r.auditRequests > 0 {
		snap.ErrorRate = float64(r.errorCount) / float64(r.auditRequests) * 100
		snap.AverageAuditMs = float64(r.totalAuditTime.Milliseconds()) / float64(r.auditRequests)
	}
	if devMode {
		snap.PopularURLs = r.topURLs(5)
	}
	return snap
}
