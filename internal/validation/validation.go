// Package validation checks request parameters and outbound image URLs.
package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// EntityIDPattern is the accepted form of an entity id in request paths.
var EntityIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateEntityID checks an id taken from a request path.
func ValidateEntityID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	return EntityIDPattern.MatchString(id)
}

// cloud metadata endpoints that are not covered by the private ranges
var metadataIPs = []net.IP{
	net.ParseIP("169.254.169.254"),
	net.ParseIP("168.63.129.16"),
}

// ValidateImageURL checks that an image URL is fetchable: http or https with a host.
func ValidateImageURL(raw string) (bool, string) {
	if strings.TrimSpace(raw) == "" {
		return false, "image URL is required"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false, "invalid image URL"
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false, "image URL must use http or https"
	}

	if u.Hostname() == "" {
		return false, "image URL has no host"
	}
	return true, ""
}

// IsPrivateIP reports whether ip is loopback, link-local, private,
// unspecified or a cloud metadata address.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, m := range metadataIPs {
		if ip.Equal(m) {
			return true
		}
	}
	return false
}

// lookupIP is swapped in tests.
var lookupIP = net.LookupIP

// IsPrivateHost reports whether host, with or without a port, resolves to any
// private address. Unresolvable hosts count as private.
func IsPrivateHost(host string) (bool, error) {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.Trim(name, "[]")

	if ip := net.ParseIP(name); ip != nil {
		return IsPrivateIP(ip), nil
	}

	ips, err := lookupIP(name)
	if err != nil {
		return true, err
	}
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return true, nil
		}
	}
	return false, nil
}

// ValidateURLForPreload validates an image URL before the preloader fetches it.
// Unless allowPrivate is set, hosts on private or reserved addresses are rejected.
func ValidateURLForPreload(raw string, allowPrivate bool) (bool, string) {
	if ok, msg := ValidateImageURL(raw); !ok {
		return false, msg
	}
	if allowPrivate {
		return true, ""
	}

	u, _ := url.Parse(raw)
	private, err := IsPrivateHost(u.Host)
	if err != nil {
		return false, "cannot resolve image host"
	}
	if private {
		return false, "image host is a private or reserved address"
	}
	return true, ""
}
