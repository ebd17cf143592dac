package sitemapper

import (
	"strings"
	"time"
)

// ChangeFrequency is the sitemap <changefreq> hint for how often a page
// changes. The zero value means the document did not declare one.
type ChangeFrequency string

const (
	ChangeFrequencyAlways  ChangeFrequency = "always"
	ChangeFrequencyHourly  ChangeFrequency = "hourly"
	ChangeFrequencyDaily   ChangeFrequency = "daily"
	ChangeFrequencyWeekly  ChangeFrequency = "weekly"
	ChangeFrequencyMonthly ChangeFrequency = "monthly"
	ChangeFrequencyYearly  ChangeFrequency = "yearly"
	ChangeFrequencyNever   ChangeFrequency = "never"
)

// ParseChangeFrequency parses a <changefreq> value case-insensitively.
// The second return value is false for values outside the sitemap spec.
func ParseChangeFrequency(s string) (ChangeFrequency, bool) {
	switch f := ChangeFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case ChangeFrequencyAlways, ChangeFrequencyHourly, ChangeFrequencyDaily,
		ChangeFrequencyWeekly, ChangeFrequencyMonthly, ChangeFrequencyYearly,
		ChangeFrequencyNever:
		return f, true
	default:
		return "", false
	}
}

// Page is a single page entry from a leaf sitemap. Only URL is guaranteed
// to be set; the remaining fields are present only when the source document
// declared them. News and Images carry extension-namespace metadata as
// opaque key-value attributes, passed through verbatim.
type Page struct {
	URL             string
	LastModified    *time.Time
	ChangeFrequency ChangeFrequency
	Priority        *float64 // conventionally 0.0-1.0, not validated
	News            map[string]string
	Images          []map[string]string
}
