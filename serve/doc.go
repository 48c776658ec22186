// Package serve exposes the validation and scanning engines over HTTP.
//
// The API is three routes: POST /api/v1/validate, POST /api/v1/scan, and
// GET /healthz. Requests are independent and nothing is persisted; the
// optional Redis-backed rate limiter stores only per-client counters.
package serve
