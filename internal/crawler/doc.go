// Package crawler implements link discovery and crawl coordination for the
// news pipeline, along with the shared types, interfaces, and configuration
// used by the fetcher, parser, worker pool, and stores.
package crawler
