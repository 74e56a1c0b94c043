// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ClientIP extracts the client IP address from a request, preferring the
// X-Forwarded-For and X-Real-IP headers set by reverse proxies over the
// raw remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First address in the list is the originating client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// OriginHost extracts the hostname from an Origin or Referer header value.
// Returns an empty string if the value cannot be parsed as a URL.
func OriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// IsLoopbackHost reports whether the given Origin/Referer value points at a
// loopback address (localhost, 127.0.0.1 or ::1). Requests from local
// development environments are always admitted by the domain gate.
func IsLoopbackHost(origin string) bool {
	host := OriginHost(origin)
	if host == "" {
		// Fall back to a substring check for malformed values, matching
		// the lenient behavior embedders rely on.
		return strings.Contains(origin, "localhost") ||
			strings.Contains(origin, "127.0.0.1") ||
			strings.Contains(origin, "::1")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// MatchesDomain reports whether host is the given domain or a subdomain of it.
func MatchesDomain(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
