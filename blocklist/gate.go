// Package blocklist decides whether a navigation should be redirected away.
package blocklist

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// MatchPolicy controls how a blocked-site entry is compared to a hostname.
type MatchPolicy string

const (
	// MatchSubstring blocks when the hostname contains the entry anywhere.
	// "co.com" therefore also blocks "ecowatch.com".
	MatchSubstring MatchPolicy = "substring"
	// MatchExact blocks only the exact hostname.
	MatchExact MatchPolicy = "exact"
	// MatchSuffix blocks the domain and its subdomains.
	MatchSuffix MatchPolicy = "suffix"
)

func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MatchSubstring, nil
	case MatchSubstring, MatchExact, MatchSuffix:
		return p, nil
	default:
		return "", fmt.Errorf("unknown match policy %q", s)
	}
}

type Gate struct {
	Policy MatchPolicy
}

func NewGate(policy MatchPolicy) Gate {
	if policy == "" {
		policy = MatchSubstring
	}
	return Gate{Policy: policy}
}

// IsBlocked reports whether rawURL's hostname matches any blocked site.
// It is always false when blocking is disabled or the URL has no hostname.
func (g Gate) IsBlocked(rawURL string, blockedSites []string, enabled bool) bool {
	if !enabled {
		return false
	}
	host := Hostname(rawURL)
	if host == "" {
		return false
	}
	_, found := lo.Find(blockedSites, func(site string) bool {
		return site != "" && g.matches(host, strings.ToLower(site))
	})
	return found
}

func (g Gate) matches(host, site string) bool {
	switch g.Policy {
	case MatchExact:
		return host == site
	case MatchSuffix:
		return host == site || strings.HasSuffix(host, "."+site)
	default:
		return strings.Contains(host, site)
	}
}

// IsBlocked applies the default substring policy.
func IsBlocked(rawURL string, blockedSites []string, enabled bool) bool {
	return NewGate(MatchSubstring).IsBlocked(rawURL, blockedSites, enabled)
}

// Hostname returns the lowercased hostname of rawURL, or "" if it cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizeSite turns user input such as "https://YouTube.com/" into "youtube.com".
func NormalizeSite(input string) string {
	site := strings.TrimSpace(input)
	site = schemePattern.ReplaceAllString(site, "")
	site = strings.TrimRight(site, "/")
	return strings.ToLower(site)
}

// AddSite returns sites with input appended, unless it is empty or already present.
func AddSite(sites []string, input string) ([]string, bool) {
	site := NormalizeSite(input)
	if site == "" || lo.Contains(sites, site) {
		return sites, false
	}
	return append(append([]string(nil), sites...), site), true
}

// RemoveSite returns sites without any entry equal to input.
func RemoveSite(sites []string, input string) ([]string, bool) {
	site := NormalizeSite(input)
	out := lo.Without(sites, site)
	return out, len(out) != len(sites)
}
