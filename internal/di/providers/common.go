package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for in-flight requests to drain.
	shutdownTimeout = 30 * time.Second
)
