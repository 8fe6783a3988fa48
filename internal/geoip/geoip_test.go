// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestDisabledResolver(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open with empty path: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Enabled() {
		t.Error("Enabled() = true for empty path")
	}
	if got := r.Country("203.0.113.7"); got != "" {
		t.Errorf("Country on disabled resolver = %q, want empty", got)
	}
	if err := r.Reload(); err != nil {
		t.Errorf("Reload on disabled resolver: %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Error("Open with missing file: expected error")
	}
}

func TestCountryLocalAddresses(t *testing.T) {
	r, _ := Open("")
	defer func() { _ = r.Close() }()

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", CountryLocal},
		{"::1", CountryLocal},
		{"10.1.2.3", CountryLocal},
		{"172.16.0.1", CountryLocal},
		{"192.168.1.1", CountryLocal},
		{"fe80::1", CountryLocal},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}
