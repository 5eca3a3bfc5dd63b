// Package httputil provides the JSON response helpers used by the trigger
// API handlers, so every endpoint answers with the same envelope and logs
// server-side failures the same way.
package httputil
