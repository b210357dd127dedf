// Package config provides configuration for crawl runs: global
// defaults such as throttle bounds and the cache staleness window, and
// per-host overrides loaded from a YAML site-overrides file.
package config
