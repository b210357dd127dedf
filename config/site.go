package config

import (
	"strings"

	"politefetch/document"
	"politefetch/fetch"
)

// SiteConfig holds per-host overrides for a single site.
type SiteConfig struct {
	// Headers are extra HTTP headers to send to this site. They are
	// merged over defaults, site values winning on conflict.
	Headers map[string]string `yaml:"headers,omitempty"`

	// StalenessDays overrides the global cache freshness window.
	// A pointer so an explicit zero, meaning always refetch, can be
	// told apart from unset.
	StalenessDays *int `yaml:"stalenessDays,omitempty"`

	// BanMarkers are text fragments that identify a ban or block page
	// served by this site. A page whose text contains any marker is
	// treated as banned instead of cached.
	BanMarkers []string `yaml:"banMarkers,omitempty"`
}

// Staleness returns the site's freshness window, falling back to def
// when the site does not override it.
func (sc SiteConfig) Staleness(def int) int {
	if sc.StalenessDays != nil {
		return *sc.StalenessDays
	}
	return def
}

// BanPredicate compiles the site's ban markers into a predicate
// suitable for fetch.WithBanPredicate. Matching is a case-insensitive
// substring check against the page text. Returns nil when no markers
// are configured, which leaves the fetch default in place.
func (sc SiteConfig) BanPredicate() fetch.BanPredicate {
	if len(sc.BanMarkers) == 0 {
		return nil
	}

	markers := make([]string, len(sc.BanMarkers))
	for i, m := range sc.BanMarkers {
		markers[i] = strings.ToLower(m)
	}

	return func(doc *document.Document) bool {
		text := strings.ToLower(doc.Text())
		for _, m := range markers {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}

// File represents the structure of the site-overrides file.
type File struct {
	// Defaults is applied to every host unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// Merged returns the effective configuration for a host: the defaults
// overlaid with the host's own entry. The returned value shares no
// maps with the file, so callers may modify it freely. A nil file
// yields a zero SiteConfig, so callers need not check whether an
// overrides file was loaded.
func (cf *File) Merged(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := cf.Defaults

	if len(result.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if site.StalenessDays != nil {
		result.StalenessDays = site.StalenessDays
	}
	if len(site.BanMarkers) > 0 {
		result.BanMarkers = site.BanMarkers
	}

	return result
}
