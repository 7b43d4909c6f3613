// Package timeouts defines shared timeout constants used across the login
// service. Centralizing these values prevents drift between the server and
// the outbound provider client.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ProviderRequest caps a single outbound call to an identity provider.
const ProviderRequest = 10 * time.Second

// TelemetryShutdown caps the flush of pending spans on exit.
const TelemetryShutdown = 5 * time.Second
