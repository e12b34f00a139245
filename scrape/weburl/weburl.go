// Package weburl provides URL normalization and validation for scrape targets.
// It implements SSRF prevention including private IP detection and DNS rebinding
// protection.
package weburl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Pre-compiled CIDR networks for private/reserved IP ranges.
// These are parsed once at package initialization for efficiency.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// Normalize prefixes a bare hostname URL with https://. URLs that already
// carry an http or https scheme are returned unchanged. The normalized URL
// is what gets echoed back in API responses.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

// Validate validates a URL for security (SSRF prevention).
// It requires an http or https scheme and blocks localhost, private IPs,
// and local domains.
func Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("only HTTP and HTTPS URLs are allowed")
	}

	// Get host without port
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	// Block localhost variants
	lowHost := strings.ToLower(host)
	if lowHost == "localhost" || lowHost == "127.0.0.1" || lowHost == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	// Block local domains
	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}

	// Try to parse as IP and check for private ranges
	if ip := net.ParseIP(host); ip != nil {
		if IsPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return nil
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// Check for IPv6-mapped IPv4 addresses (::ffff:x.x.x.x)
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		// Re-check after conversion
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	// Check for additional reserved ranges using pre-compiled CIDRs
	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}

// Slug creates a filesystem-safe slug from a URL, used to name debug
// artifacts (saved HTML, screenshots). Falls back to a hash for URLs that
// do not parse.
func Slug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return hex.EncodeToString(hash[:8])
	}

	host := parsed.Hostname()
	path := strings.Trim(parsed.Path, "/")

	slug := strings.ReplaceAll(host, ".", "-")
	if path != "" {
		slug = slug + "-" + strings.ReplaceAll(path, "/", "-")
	}

	slug = strings.ToLower(slug)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		hash := sha256.Sum256([]byte(rawURL))
		return hex.EncodeToString(hash[:8])
	}

	return slug
}

// ExtractDomain extracts the domain name from a URL.
// Returns an empty string if the URL is invalid.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
