// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ChatCompletion caps a single hosted-model round trip from the chat agent.
const ChatCompletion = 60 * time.Second

// RefillSweep caps one full worker pass over all recurring series.
const RefillSweep = 5 * time.Minute
