// Package api hosts the read-only HTTP server over stored news. Routes:
//   - GET /healthz for liveness and /readyz, which queries the store.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/news for filtered, paginated article listings.
package api
