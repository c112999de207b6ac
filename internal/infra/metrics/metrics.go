package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/linkcut/linkcut/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// Domain counters for the shortening core.
var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcut_links_created_total",
		Help: "Number of short links successfully created.",
	})
	Redirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcut_redirects_total",
		Help: "Number of successful short-code resolutions served.",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcut_resolution_cache_hits_total",
		Help: "Resolutions answered from the cache.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcut_resolution_cache_misses_total",
		Help: "Resolutions that fell through to the link registry.",
	})
	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkcut_code_collisions_total",
		Help: "Random short-code generations that collided with an existing code.",
	})
)

// NewServer builds a basic HTTP server that exposes /metrics for Prometheus
// scraping.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}
