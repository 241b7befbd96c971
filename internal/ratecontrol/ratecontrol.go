// Package ratecontrol enforces a minimum cooldown between external calls,
// scoped per provider. Concurrent calls to the same provider serialize
// through the cooldown; calls to different providers never block each other.
package ratecontrol

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type config struct {
	RateLimits struct {
		DefaultRPM        int `yaml:"default_rpm"`
		ProviderOverrides map[string]struct {
			RPM int `yaml:"rpm"`
		} `yaml:"provider_overrides"`
	} `yaml:"rate_limits"`
}

var defaultPaths = []string{
	os.Getenv("PROVIDERS_CONFIG_PATH"),
	"/app/config/providers.yaml",
	"./config/providers.yaml",
	"../../config/providers.yaml",
}

// Provider limits applied when no config file overrides them. Search APIs
// commonly allow 1 req/s on entry tiers; reasoning APIs are looser.
var builtInProviderRPM = map[string]int{
	"gemini": 30,
	"tavily": 60,
	"brave":  60,
}

const fallbackRPM = 30

func loadConfig() *config {
	for _, p := range defaultPaths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var cfg config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("WARNING: failed to unmarshal rate limit config from %s: %v", p, err)
			continue
		}
		log.Printf("Loaded provider rate limits from %s", p)
		return &cfg
	}
	if path, ok := findUpConfig(); ok {
		if data, err := os.ReadFile(path); err == nil {
			var cfg config
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				log.Printf("Loaded provider rate limits from %s", path)
				return &cfg
			}
		}
	}
	return &config{}
}

func findUpConfig() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 6; i++ {
		cand := filepath.Join(wd, "config", "providers.yaml")
		if _, err := os.Stat(cand); err == nil {
			return cand, true
		}
		wd = filepath.Dir(wd)
	}
	return "", false
}

// Gate issues at most one call per cooldown interval per provider. The
// per-provider limiter map is the only mutable state shared across
// concurrently executing stages, guarded by a single mutex.
type Gate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      map[string]int
	defRPM   int
}

// NewGate builds a gate from the yaml config (when present) layered over
// built-in provider limits.
func NewGate() *Gate {
	cfg := loadConfig()
	g := &Gate{
		limiters: make(map[string]*rate.Limiter),
		rpm:      make(map[string]int),
		defRPM:   cfg.RateLimits.DefaultRPM,
	}
	if g.defRPM <= 0 {
		g.defRPM = fallbackRPM
	}
	for name, limit := range builtInProviderRPM {
		g.rpm[name] = limit
	}
	for name, o := range cfg.RateLimits.ProviderOverrides {
		if o.RPM > 0 {
			g.rpm[strings.ToLower(strings.TrimSpace(name))] = o.RPM
		}
	}
	return g
}

// NewGateWithLimits builds a gate with explicit per-provider RPM limits.
// Used by tests and by callers that resolve limits elsewhere.
func NewGateWithLimits(rpm map[string]int, defaultRPM int) *Gate {
	if defaultRPM <= 0 {
		defaultRPM = fallbackRPM
	}
	g := &Gate{
		limiters: make(map[string]*rate.Limiter),
		rpm:      make(map[string]int),
		defRPM:   defaultRPM,
	}
	for name, limit := range rpm {
		g.rpm[strings.ToLower(strings.TrimSpace(name))] = limit
	}
	return g
}

// Acquire blocks until the provider's cooldown has elapsed since the gate's
// last release for that provider, or until ctx is done.
func (g *Gate) Acquire(ctx context.Context, provider string) error {
	return g.limiterFor(provider).Wait(ctx)
}

// Cooldown reports the interval enforced between calls for a provider.
func (g *Gate) Cooldown(provider string) time.Duration {
	return time.Minute / time.Duration(g.rpmFor(provider))
}

func (g *Gate) rpmFor(provider string) int {
	key := strings.ToLower(strings.TrimSpace(provider))
	if limit, ok := g.rpm[key]; ok && limit > 0 {
		return limit
	}
	return g.defRPM
}

func (g *Gate) limiterFor(provider string) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(provider))
	g.mu.Lock()
	defer g.mu.Unlock()
	if lim, ok := g.limiters[key]; ok {
		return lim
	}
	// Burst of 1 makes the limiter a pure cooldown gate: one release per
	// interval, no banked tokens.
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(g.rpmFor(provider))), 1)
	g.limiters[key] = lim
	return lim
}
