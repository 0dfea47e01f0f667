// Package geoip tags requests with the caller's country for access logs.
package geoip

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Locator maps an IP to an ISO country code. An empty result means unknown.
type Locator interface {
	Country(ip string) string
}

// Resolver is a Locator backed by a MaxMind country database. Lookups are
// memoized since the same clients call repeatedly while polling status.
type Resolver struct {
	reader *geoip2.Reader

	mu    sync.Mutex
	cache map[string]string
}

const maxCached = 4096

// Open loads the database at path. An empty path yields a nil Locator so
// callers can skip tagging.
func Open(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader, cache: make(map[string]string)}, nil
}

func (r *Resolver) Country(ip string) string {
	if r == nil || r.reader == nil {
		return ""
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return ""
	}
	key := parsed.String()

	r.mu.Lock()
	code, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return code
	}

	record, err := r.reader.Country(parsed)
	if err == nil && record != nil {
		code = record.Country.IsoCode
	}
	r.mu.Lock()
	if len(r.cache) >= maxCached {
		r.cache = make(map[string]string)
	}
	r.cache[key] = code
	r.mu.Unlock()
	return code
}

func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
