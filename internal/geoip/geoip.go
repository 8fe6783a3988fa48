// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to 2-letter country codes using a
// MaxMind GeoLite2-Country database. Lookups degrade gracefully: without
// a configured database every lookup returns an empty string.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// CountryLocal is returned for private, link-local and loopback addresses.
const CountryLocal = "LOCAL"

var privateCIDRs []*net.IPNet

func init() {
	for _, block := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"fe80::/10",
	} {
		if _, cidr, err := net.ParseCIDR(block); err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Resolver maps IP addresses to country codes. The zero value is a
// disabled resolver; use Open to load a database.
type Resolver struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the GeoLite2-Country database at path. An empty path returns
// a disabled resolver and no error.
func Open(path string) (*Resolver, error) {
	r := &Resolver{path: path}
	if path == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// load opens or reopens the database file. Caller holds no lock.
func (r *Resolver) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("checking GeoIP database: %w", err)
	}

	// Unchanged since last load, nothing to do.
	if r.db != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	db, err := maxminddb.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening GeoIP database: %w", err)
	}

	if r.db != nil {
		_ = r.db.Close()
	}
	r.db = db
	r.modTime = info.ModTime()
	return nil
}

// Reload reopens the database if the file has been replaced on disk.
// Safe to call periodically.
func (r *Resolver) Reload() error {
	if r.path == "" {
		return nil
	}
	return r.load()
}

// Country returns the ISO country code for an IP address, CountryLocal for
// private/loopback addresses, or "" when the IP is invalid or the database
// is unavailable.
func (r *Resolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivateIP(parsed) {
		return CountryLocal
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.db == nil {
		return ""
	}

	var rec countryRecord
	if err := r.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
