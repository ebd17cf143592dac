// Package sitemapper discovers and parses the sitemap hierarchy published
// by a website. Given a homepage URL it enumerates candidate sitemap
// locations from robots.txt and well-known paths, fetches and classifies
// each document (XML sitemap indexes and url-sets, plain-text URL lists,
// RSS and Atom feeds, gzip-compressed variants), recursively expands index
// documents, and returns the result as an in-memory tree of sitemap nodes
// and the pages they reference. Per-document failures become typed
// placeholder nodes in the tree rather than aborting the whole run.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, etree/, gofeed/); the
// orchestration engine lives in fetch/.
package sitemapper

// Version is the released version of the module, used in the default
// User-Agent header.
const Version = "0.1.0"
