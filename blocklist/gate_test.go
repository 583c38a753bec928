package blocklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlocked(t *testing.T) {
	sites := []string{"youtube.com", "co.com"}

	tests := []struct {
		name    string
		policy  MatchPolicy
		url     string
		enabled bool
		want    bool
	}{
		{"subdomain substring", MatchSubstring, "https://sub.youtube.com/watch", true, true},
		{"disabled never blocks", MatchSubstring, "https://sub.youtube.com/watch", false, false},
		{"substring is loose", MatchSubstring, "https://ecowatch.com/", true, true},
		{"unrelated host", MatchSubstring, "https://github.com/", true, false},
		{"path does not count", MatchSubstring, "https://github.com/youtube.com", true, false},
		{"invalid url", MatchSubstring, "://nope", true, false},
		{"no host", MatchSubstring, "youtube.com", true, false},
		{"uppercase host", MatchSubstring, "https://WWW.YOUTUBE.COM", true, true},
		{"exact match", MatchExact, "https://youtube.com/", true, true},
		{"exact rejects subdomain", MatchExact, "https://m.youtube.com/", true, false},
		{"suffix subdomain", MatchSuffix, "https://m.youtube.com/", true, true},
		{"suffix apex", MatchSuffix, "https://youtube.com/", true, true},
		{"suffix boundary", MatchSuffix, "https://ecowatch.com/", true, false},
		{"suffix lookalike", MatchSuffix, "https://notyoutube.com/", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGate(tt.policy).IsBlocked(tt.url, sites, tt.enabled))
		})
	}
}

func TestIsBlockedDefaultPolicy(t *testing.T) {
	assert.True(t, IsBlocked("https://sub.youtube.com/watch", []string{"youtube.com"}, true))
	assert.False(t, IsBlocked("https://sub.youtube.com/watch", []string{"youtube.com"}, false))
	assert.False(t, IsBlocked("https://sub.youtube.com/watch", nil, true))
	assert.False(t, IsBlocked("https://sub.youtube.com/watch", []string{""}, true), "empty entries never match")
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, p)

	p, err = ParseMatchPolicy(" Suffix ")
	require.NoError(t, err)
	assert.Equal(t, MatchSuffix, p)

	_, err = ParseMatchPolicy("regex")
	assert.Error(t, err)
}

func TestSiteEditing(t *testing.T) {
	assert.Equal(t, "youtube.com", NormalizeSite("  HTTPS://YouTube.com/ "))

	sites, added := AddSite([]string{"a.com"}, "http://b.com/")
	assert.True(t, added)
	assert.Equal(t, []string{"a.com", "b.com"}, sites)

	sites, added = AddSite(sites, "b.com")
	assert.False(t, added)
	assert.Len(t, sites, 2)

	_, added = AddSite(sites, "   ")
	assert.False(t, added)

	sites, removed := RemoveSite(sites, "https://a.com")
	assert.True(t, removed)
	assert.Equal(t, []string{"b.com"}, sites)

	_, removed = RemoveSite(sites, "zzz.com")
	assert.False(t, removed)
}
