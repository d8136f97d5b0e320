// Package httputil provides shared JSON response and request helpers for
// the API handlers. Handlers write responses through these instead of raw
// http.ResponseWriter calls so every endpoint shares one error envelope.
package httputil
